// Package client wires a loaded configuration into a ready Repository.
//
// It builds the logger, the HTTP transport (with certificate pinning when the
// endpoint asks for it), the optional OpenTelemetry providers and the
// repository, and owns their shutdown.
//
//	var cfg config.Config
//	if err := config.Load("orders-app", &cfg); err != nil {
//		return err
//	}
//	store := session.NewStore()
//	c, err := client.New(ctx, cfg, store)
//	if err != nil {
//		return err
//	}
//	defer c.Close(context.Background())
//
//	order, err := repository.Perform(ctx, c.Repository, http.MethodGet, "/orders/7", nil,
//		repository.Into[Order]())
package client
