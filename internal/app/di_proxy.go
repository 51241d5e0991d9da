package app

import (
	"context"
	"fmt"

	authService "github.com/allisson/credproxy/internal/auth/service"
	cryptoService "github.com/allisson/credproxy/internal/crypto/service"
	"github.com/allisson/credproxy/internal/http"
	"github.com/allisson/credproxy/internal/proxy"
	proxyHTTP "github.com/allisson/credproxy/internal/proxy/http"
	"github.com/allisson/credproxy/internal/signer"
	"github.com/allisson/credproxy/internal/transport"
)

// Vault returns the password-based credential vault.
func (c *Container) Vault() cryptoService.Vault {
	c.vaultInit.Do(func() {
		c.vault = cryptoService.NewVault(cryptoService.NewKDF())
	})
	return c.vault
}

// Signer returns the request signer scoped to the configured region and service.
func (c *Container) Signer() *signer.Signer {
	c.signerInit.Do(func() {
		c.signer = signer.New(c.config.BackendRegion, c.config.BackendService)
	})
	return c.signer
}

// Sender returns the backend sender, decorated with metrics when enabled.
func (c *Container) Sender() (transport.Sender, error) {
	var err error
	c.senderInit.Do(func() {
		c.sender, err = c.initSender()
		if err != nil {
			c.initErrors["sender"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["sender"]; exists {
		return nil, storedErr
	}
	return c.sender, nil
}

// Proxy returns the proxy event loop. The caller must start it with Run.
func (c *Container) Proxy() (*proxy.Proxy, error) {
	var err error
	c.proxyInit.Do(func() {
		c.proxy, err = c.initProxy()
		if err != nil {
			c.initErrors["proxy"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["proxy"]; exists {
		return nil, storedErr
	}
	return c.proxy, nil
}

// ProxyClient returns the blocking client for the proxy. The caller must
// start its Dispatch loop.
func (c *Container) ProxyClient() (*proxy.Client, error) {
	var err error
	c.proxyClientInit.Do(func() {
		var p *proxy.Proxy
		p, err = c.Proxy()
		if err != nil {
			err = fmt.Errorf("failed to get proxy for proxy client: %w", err)
			c.initErrors["proxyClient"] = err
			return
		}
		c.proxyClient = proxy.NewClient(p, c.Logger())
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["proxyClient"]; exists {
		return nil, storedErr
	}
	return c.proxyClient, nil
}

// APITokenService returns the service that hashes and verifies API tokens.
func (c *Container) APITokenService() authService.APITokenService {
	c.apiTokenServiceInit.Do(func() {
		c.apiTokenService = authService.NewAPITokenService()
	})
	return c.apiTokenService
}

// ProxyHandler returns the HTTP handler for the proxy endpoints.
func (c *Container) ProxyHandler() (*proxyHTTP.ProxyHandler, error) {
	var err error
	c.proxyHandlerInit.Do(func() {
		c.proxyHandler, err = c.initProxyHandler()
		if err != nil {
			c.initErrors["proxyHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["proxyHandler"]; exists {
		return nil, storedErr
	}
	return c.proxyHandler, nil
}

// HTTPServer returns the API server with its router configured. ctx bounds
// background work started by the router's middleware.
func (c *Container) HTTPServer(ctx context.Context) (*http.Server, error) {
	var err error
	c.httpServerInit.Do(func() {
		c.httpServer, err = c.initHTTPServer(ctx)
		if err != nil {
			c.initErrors["httpServer"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*http.MetricsServer, error) {
	var err error
	c.metricsServerInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, providerErr := c.MetricsProvider()
		if providerErr != nil {
			err = fmt.Errorf("failed to get metrics provider for metrics server: %w", providerErr)
			c.initErrors["metricsServer"] = err
			return
		}
		c.metricsServer = http.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

func (c *Container) initSender() (transport.Sender, error) {
	client := transport.NewHTTPClient(c.config.BackendTimeout)
	baseSender := transport.NewHTTPSender(client, c.config.BackendScheme, c.Logger())

	if c.config.MetricsEnabled {
		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			return nil, fmt.Errorf("failed to get business metrics for sender: %w", err)
		}
		return transport.NewSenderWithMetrics(baseSender, businessMetrics), nil
	}

	return baseSender, nil
}

func (c *Container) initProxy() (*proxy.Proxy, error) {
	sender, err := c.Sender()
	if err != nil {
		return nil, fmt.Errorf("failed to get sender for proxy: %w", err)
	}

	store, err := c.CredentialStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential store for proxy: %w", err)
	}

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics for proxy: %w", err)
	}

	return proxy.New(
		c.Vault(),
		c.Signer(),
		sender,
		store,
		c.Logger(),
		businessMetrics,
		proxy.Config{OutboundBuffer: c.config.ProxyOutboundBuffer},
	), nil
}

func (c *Container) initProxyHandler() (*proxyHTTP.ProxyHandler, error) {
	client, err := c.ProxyClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get proxy client for proxy handler: %w", err)
	}

	store, err := c.CredentialStore()
	if err != nil {
		return nil, fmt.Errorf("failed to get credential store for proxy handler: %w", err)
	}

	return proxyHTTP.NewProxyHandler(client, store, c.Logger()), nil
}

// initHTTPServer creates the HTTP server with all its dependencies.
func (c *Container) initHTTPServer(ctx context.Context) (*http.Server, error) {
	logger := c.Logger()

	client, err := c.ProxyClient()
	if err != nil {
		return nil, fmt.Errorf("failed to get proxy client for http server: %w", err)
	}

	handler, err := c.ProxyHandler()
	if err != nil {
		return nil, fmt.Errorf("failed to get proxy handler for http server: %w", err)
	}

	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for http server: %w", err)
	}

	server := http.NewServer(client, c.config.ServerHost, c.config.ServerPort, logger)
	server.SetupRouter(ctx, c.config, handler, c.APITokenService(), provider)

	return server, nil
}
