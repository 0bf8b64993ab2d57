package cli

import (
	"strings"

	"github.com/streakerapp/supacheck/internal/buildinfo"
	"github.com/streakerapp/supacheck/internal/domain"
	"github.com/streakerapp/supacheck/internal/infra/config"
	"github.com/streakerapp/supacheck/internal/infra/httpclient"
	"github.com/streakerapp/supacheck/internal/infra/logger"
	"github.com/streakerapp/supacheck/internal/infra/reportstore"
	"github.com/streakerapp/supacheck/internal/infra/supabase"
	"github.com/streakerapp/supacheck/internal/infra/yamlprofile"
	"github.com/streakerapp/supacheck/internal/ports"
)

// projectCtx is the loaded configuration plus the adapters built from it.
type projectCtx struct {
	root string
	cfg  domain.Config
}

func (a *app) loadProject() (*projectCtx, error) {
	root := a.root()
	loaded, err := config.Load(config.Options{Root: root, File: a.configFile})
	if err != nil {
		return nil, err
	}

	cfg := loaded.Config
	if v := strings.TrimSpace(a.url); v != "" {
		cfg.Project.URL = v
	}
	if v := strings.TrimSpace(a.anonKey); v != "" {
		cfg.Project.AnonKey = v
	}
	if v := strings.TrimSpace(a.serviceRoleKey); v != "" {
		cfg.Project.ServiceRoleKey = v
	}
	if v := strings.TrimSpace(a.dbURL); v != "" {
		cfg.Project.DatabaseURL = v
	}
	if a.timeout > 0 {
		cfg.HTTP.Timeout = a.timeout
	}

	logger.L().Debug("config.loaded", "root", root, "path", loaded.Path, "project", cfg.Project.URL)
	return &projectCtx{root: root, cfg: cfg}, nil
}

// client builds a gateway client keyed with the anon key, or the service
// role key when serviceRole is set.
func (p *projectCtx) client(serviceRole bool) (*supabase.Client, error) {
	if err := config.RequireProject(p.cfg, serviceRole); err != nil {
		return nil, err
	}
	key := p.cfg.Project.AnonKey
	if serviceRole {
		key = p.cfg.Project.ServiceRoleKey
	}

	httpCfg := httpclient.FromConfig(p.cfg.HTTP, "supacheck/"+buildinfo.Version)
	exec := httpclient.NewExecutor(
		httpclient.WithClient(httpclient.New(httpCfg)),
		httpclient.WithTimeout(httpCfg.Timeout),
	)
	return supabase.NewClient(p.cfg.Project.URL, key, supabase.WithDoer(exec))
}

func (p *projectCtx) profiles() ports.ProfileSource {
	return yamlprofile.NewLoader(p.root)
}

func (p *projectCtx) reports() ports.ReportStore {
	return reportstore.NewJSONStore(p.root, p.cfg.Output)
}
