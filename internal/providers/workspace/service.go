package workspace

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	mcpproto "github.com/mark3labs/mcp-go/mcp"

	"github.com/mcbarin/personal-ai-assistant/internal/core"
	"github.com/mcbarin/personal-ai-assistant/pkg/jsonx"
	"github.com/mcbarin/personal-ai-assistant/pkg/log"
)

type Storage interface {
	Load(ctx context.Context) (*Config, error)
	Save(ctx context.Context, cfg *Config) error
	Watch(ctx context.Context) (<-chan Config, error)
}

var _ core.WorkspaceServer = (*Service)(nil)

// Service connects the configured MCP servers and exposes their tools as
// workspace capabilities. Capability names are reported exactly as the
// servers declare them; ListCapabilities always asks the live connections,
// so the set tracks whatever the servers currently offer.
type Service struct {
	storage        Storage
	pool           ConnectionPool
	connectTimeout time.Duration

	mu            sync.RWMutex
	activeConfigs map[string]ServerConfig
	routing       map[string]string // capability name -> server name, from the latest listing
}

func NewService(storage Storage, pool ConnectionPool) *Service {
	return &Service{
		storage:        storage,
		pool:           pool,
		connectTimeout: 30 * time.Second,
		activeConfigs:  make(map[string]ServerConfig),
		routing:        make(map[string]string),
	}
}

func (s *Service) Start(ctx context.Context) error {
	cfg, err := s.storage.Load(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	for k, v := range cfg.MCPServers {
		s.activeConfigs[k] = v
	}
	s.mu.Unlock()

	// Connect in parallel; a slow or broken server must not block startup.
	for name, srv := range cfg.MCPServers {
		go s.connectServer(ctx, name, srv)
	}

	updates, err := s.storage.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	go s.watchConfig(ctx, updates)

	return nil
}

func (s *Service) Shutdown(ctx context.Context) error {
	return s.pool.Close()
}

func (s *Service) connectServer(ctx context.Context, name string, cfg ServerConfig) {
	connectCtx, cancel := context.WithTimeout(ctx, s.connectTimeout)
	defer cancel()

	logger := log.FromCtx(ctx).With().Str("server", name).Logger()
	logger.Info().
		Str("url", cfg.URL).
		Str("command", cfg.Command).
		Msg("starting workspace server")

	if _, err := s.pool.Add(connectCtx, name, cfg); err != nil {
		logger.Error().Err(err).Msg("failed to start workspace server")
		return
	}

	logger.Info().Msg("workspace server connected")
}

func (s *Service) watchConfig(ctx context.Context, updates <-chan Config) {
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-updates:
			if !ok {
				return
			}
			s.syncServers(ctx, cfg.MCPServers)
		}
	}
}

func (s *Service) syncServers(ctx context.Context, desired map[string]ServerConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for name, activeCfg := range s.activeConfigs {
		newCfg, exists := desired[name]
		if !exists {
			log.FromCtx(ctx).Info().Str("server", name).Msg("removing workspace server")
			s.pool.Del(name)
			delete(s.activeConfigs, name)
			continue
		}

		if !reflect.DeepEqual(activeCfg, newCfg) {
			log.FromCtx(ctx).Info().Str("server", name).Msg("restarting workspace server")
			s.connectServer(ctx, name, newCfg)
			s.activeConfigs[name] = newCfg
		}
	}

	for name, newCfg := range desired {
		if _, exists := s.activeConfigs[name]; !exists {
			log.FromCtx(ctx).Info().Str("server", name).Msg("adding workspace server")
			s.connectServer(ctx, name, newCfg)
			s.activeConfigs[name] = newCfg
		}
	}
}

// ListCapabilities queries every connected server and aggregates their
// tools. Nothing is cached between calls; the routing table is rebuilt
// from each listing so Invoke always follows the most recent view.
func (s *Service) ListCapabilities(ctx context.Context) ([]core.Capability, error) {
	type listResult struct {
		serverName string
		caps       []core.Capability
		err        error
	}

	clients := s.pool.All()
	results := make(chan listResult, len(clients))
	var wg sync.WaitGroup

	for name, cli := range clients {
		wg.Add(1)
		go func(n string, c *ManagedClient) {
			defer wg.Done()
			caps, err := s.listServer(ctx, c)
			results <- listResult{serverName: n, caps: caps, err: err}
		}(name, cli)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	var all []core.Capability
	routing := make(map[string]string)
	var failed, queried int

	for res := range results {
		queried++
		if res.err != nil {
			log.FromCtx(ctx).Error().Err(res.err).Str("server", res.serverName).Msg("failed to list capabilities")
			failed++
			continue
		}
		all = append(all, res.caps...)
		for _, c := range res.caps {
			if _, taken := routing[c.Name]; !taken {
				routing[c.Name] = res.serverName
			}
		}
	}

	if queried > 0 && failed == queried {
		return nil, fmt.Errorf("all %d workspace servers failed to list capabilities", queried)
	}

	s.mu.Lock()
	s.routing = routing
	s.mu.Unlock()

	return all, nil
}

func (s *Service) listServer(ctx context.Context, cli *ManagedClient) ([]core.Capability, error) {
	resp, err := cli.ListTools(ctx, mcpproto.ListToolsRequest{})
	if err != nil {
		return nil, err
	}

	caps := make([]core.Capability, 0, len(resp.Tools))
	for _, t := range resp.Tools {
		caps = append(caps, core.Capability{
			Name:        t.Name,
			Description: t.Description,
		})
	}
	return caps, nil
}

func (s *Service) Invoke(ctx context.Context, name string, args map[string]any) (core.InvokeResult, error) {
	log.FromCtx(ctx).Info().Str("capability", name).Msg("invoking capability")

	s.mu.RLock()
	serverName, ok := s.routing[name]
	s.mu.RUnlock()

	if !ok {
		// The caller may hold a name from its own discovery pass; refresh
		// the routing table once before giving up.
		if _, err := s.ListCapabilities(ctx); err != nil {
			return core.InvokeResult{}, fmt.Errorf("capability %s: %w", name, err)
		}
		s.mu.RLock()
		serverName, ok = s.routing[name]
		s.mu.RUnlock()
		if !ok {
			return core.InvokeResult{}, fmt.Errorf("capability not found: %s", name)
		}
	}

	cli, ok := s.pool.Get(serverName)
	if !ok {
		return core.InvokeResult{}, fmt.Errorf("server %s is not available", serverName)
	}

	req := mcpproto.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := cli.CallTool(ctx, req)
	if err != nil {
		return core.InvokeResult{}, err
	}

	text := collectText(res)

	if res.IsError {
		return core.InvokeResult{}, &core.CapabilityError{
			Capability: name,
			Message:    text,
		}
	}

	return core.InvokeResult{
		Text: text,
		URL:  extractURL(text),
	}, nil
}

func collectText(res *mcpproto.CallToolResult) string {
	var sb strings.Builder
	for _, content := range res.Content {
		if text, ok := content.(mcpproto.TextContent); ok {
			sb.WriteString(text.Text)
			sb.WriteString("\n")
		} else if textPtr, ok := content.(*mcpproto.TextContent); ok {
			sb.WriteString(textPtr.Text)
			sb.WriteString("\n")
		}
	}
	return strings.TrimSpace(sb.String())
}

// extractURL pulls a page link out of a JSON tool response, if present.
func extractURL(text string) string {
	obj, err := jsonx.DecodeMap(text)
	if err != nil {
		return ""
	}
	if u, ok := obj["url"].(string); ok {
		return u
	}
	return ""
}
