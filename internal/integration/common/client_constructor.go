// Package common builds the HTTP connector shared by the outbound integrations.
package common

import (
	"github.com/futig/report-grounder/internal/config"
	pkgHTTP "github.com/futig/report-grounder/pkg/http"
	"go.uber.org/zap"
)

const userAgentPrefix = "report-grounder/"

// NewBaseConnector returns a connector for one backend. component names the
// caller in the User-Agent and in the connector's log lines.
func NewBaseConnector(cfg config.HTTPClientConfig, component string, logger *zap.Logger) *pkgHTTP.Connector {
	connCfg := &pkgHTTP.ConnectorConfig{
		Logger:  logger.With(zap.String("connector", component)),
		BaseURL: cfg.Url,
	}

	return pkgHTTP.NewConnector(
		connCfg,
		pkgHTTP.WithRequestTimeout(cfg.RequestTimeout),
		pkgHTTP.WithConnClientTimeout(cfg.ConnTimeout),
		pkgHTTP.WithClientKeepAlive(cfg.KeepAlive),
		pkgHTTP.WithIdleConnTimeout(cfg.IdleConnTimeout),
		pkgHTTP.WithResponseHeaderTimeout(cfg.ResponseHeaderTimeout),
		pkgHTTP.WithRequestLogging(),
		pkgHTTP.WithAuthToken(cfg.Token),
		pkgHTTP.WithStaticHeaders(cfg.Headers),
		pkgHTTP.WithUserAgent(userAgentPrefix+component),
	)
}
