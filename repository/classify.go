package repository

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/emmanuelhcpk/wolmo-networking/errors"
	"github.com/emmanuelhcpk/wolmo-networking/httpclient"
	"github.com/emmanuelhcpk/wolmo-networking/logger"
)

// offlinePattern marks transport failures caused by lost connectivity.
const offlinePattern = "internet connection"

var errNoResponse = stderrors.New("transport returned no response")

// classify maps a transport failure to a repository error. Rules apply in
// order: lost connectivity, unauthorized while logged in, a domain error
// extracted by the call's error decoder, and finally a request error.
func (r *Repository) classify(ctx context.Context, c *call, err error) *errors.Error {
	var terr *httpclient.Error
	isTransport := stderrors.As(err, &terr)

	if isOffline(err, terr) {
		return errors.NoNetworkConnection(err)
	}

	if isTransport && terr.StatusCode == http.StatusUnauthorized && r.session.IsAuthenticated() {
		r.session.Expire()
		r.metrics.RecordSessionExpired(ctx)
		r.log.WithContext(ctx).Info("session expired by server", logger.Fields(
			logger.FieldMode, c.mode,
			logger.FieldPath, c.path,
			logger.FieldStatus, terr.StatusCode,
		))
		return errors.UnauthenticatedSession()
	}

	if isTransport && c.opts.errorDecoder != nil {
		if body, ok := parseBody(terr.Body); ok {
			if domainErr := c.opts.errorDecoder(body); domainErr != nil {
				if e, ok := errors.AsError(domainErr); ok && e.Kind == errors.KindCustom {
					return e
				}
				custom := errors.Custom(domainErr)
				custom.StatusCode = terr.StatusCode
				return custom
			}
		}
	}

	return errors.Request(err)
}

func isOffline(err error, terr *httpclient.Error) bool {
	if terr != nil {
		if terr.Code == httpclient.ErrCodeOffline {
			return true
		}
		return strings.Contains(strings.ToLower(terr.Description), offlinePattern)
	}
	return strings.Contains(strings.ToLower(err.Error()), offlinePattern)
}
