package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"tailscale-webui/internal/runner"
)

var serviceNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// UbusQuerier asks procd through `ubus call service list`.
type UbusQuerier struct {
	bin    string
	runner runner.Runner
}

// NewUbusQuerier creates a querier using the ubus binary at bin.
func NewUbusQuerier(bin string, r runner.Runner) *UbusQuerier {
	if strings.TrimSpace(bin) == "" {
		bin = "ubus"
	}
	return &UbusQuerier{bin: bin, runner: r}
}

func (u *UbusQuerier) Lookup(ctx context.Context, name, instance string) (RunState, error) {
	if !serviceNamePattern.MatchString(name) {
		return RunState{}, fmt.Errorf("invalid service name %q", name)
	}
	params, err := json.Marshal(map[string]string{"name": name})
	if err != nil {
		return RunState{}, err
	}
	res, err := u.runner.Run(ctx, u.bin, "call", "service", "list", string(params))
	if err != nil {
		return RunState{}, fmt.Errorf("ubus service list: %w", err)
	}
	if !res.OK() {
		return RunState{}, fmt.Errorf("ubus service list: exit %d: %s", res.Code, res.Combined())
	}
	return ParseServiceList([]byte(res.Stdout), name, instance)
}

// ParseServiceList extracts <name>.instances.<instance>.running from a
// procd service listing. Missing levels yield a zero RunState, not an error.
func ParseServiceList(data []byte, name, instance string) (RunState, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return RunState{}, nil
	}
	var services map[string]struct {
		Instances map[string]struct {
			Running *bool `json:"running"`
		} `json:"instances"`
	}
	if err := json.Unmarshal(data, &services); err != nil {
		return RunState{}, fmt.Errorf("decode service list: %w", err)
	}
	svc, ok := services[name]
	if !ok {
		return RunState{}, nil
	}
	inst, ok := svc.Instances[instance]
	if !ok || inst.Running == nil {
		return RunState{}, nil
	}
	return RunState{Found: true, Running: *inst.Running}, nil
}

// InitdController drives /etc/init.d/<name> scripts.
type InitdController struct {
	dir    string
	runner runner.Runner
}

// NewInitdController creates a controller for scripts under dir.
func NewInitdController(dir string, r runner.Runner) *InitdController {
	if strings.TrimSpace(dir) == "" {
		dir = "/etc/init.d"
	}
	return &InitdController{dir: strings.TrimRight(dir, "/"), runner: r}
}

func (c *InitdController) Start(ctx context.Context, name string) error {
	return c.run(ctx, name, "start")
}

func (c *InitdController) Stop(ctx context.Context, name string) error {
	return c.run(ctx, name, "stop")
}

func (c *InitdController) Restart(ctx context.Context, name string) error {
	return c.run(ctx, name, "restart")
}

func (c *InitdController) Enable(ctx context.Context, name string) error {
	return c.run(ctx, name, "enable")
}

func (c *InitdController) Disable(ctx context.Context, name string) error {
	return c.run(ctx, name, "disable")
}

func (c *InitdController) run(ctx context.Context, name, action string) error {
	if !serviceNamePattern.MatchString(name) {
		return fmt.Errorf("invalid service name %q", name)
	}
	script := c.dir + "/" + name
	res, err := c.runner.Run(ctx, script, action)
	if err != nil {
		return fmt.Errorf("%s %s: %w", script, action, err)
	}
	if !res.OK() {
		return fmt.Errorf("%s %s: exit %d: %s", script, action, res.Code, res.Combined())
	}
	return nil
}
