// Command guardrail is a small CLI in front of the guardrail core,
// for scripted automation and config checks. The trigger path walks
// the full propose, approve, execute state machine in-process so
// shell automation gets the same guardrail semantics as embedded
// callers.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	guardrail "github.com/goliatone/go-guardrail"
	"github.com/goliatone/go-guardrail/lifecycle"
	"github.com/goliatone/go-guardrail/webhook"
)

type cli struct {
	Config  string `help:"Path to YAML config file." short:"c" default:"guardrail.yaml"`
	Verbose bool   `help:"Enable debug logging." short:"v"`

	Check    checkCmd    `cmd:"" help:"Validate the config file."`
	Simulate simulateCmd `cmd:"" help:"Run an action through the state machine without dispatching."`
	Trigger  triggerCmd  `cmd:"" help:"Propose, approve, and execute an action."`
}

type runContext struct {
	config guardrail.Config
	logger guardrail.Logger
}

type actionFlags struct {
	Event  string `help:"Event name, prefixed with the configured namespace." required:""`
	Value1 string `help:"First payload slot."`
	Value2 string `help:"Second payload slot."`
	Value3 string `help:"Third payload slot."`
	Reason string `help:"Human readable justification." required:""`
	Source string `help:"Origin identifier of the proposer." default:"cli"`
	Target string `help:"Optional target, e.g. a zone or device."`
}

func (f actionFlags) request() lifecycle.ProposeRequest {
	return lifecycle.ProposeRequest{
		Event: f.Event,
		Payload: guardrail.Payload{
			Value1: f.Value1,
			Value2: f.Value2,
			Value3: f.Value3,
		},
		Metadata: guardrail.Metadata{
			Reason: f.Reason,
			Source: f.Source,
			Target: f.Target,
		},
	}
}

type checkCmd struct{}

func (cmd *checkCmd) Run(rctx *runContext) error {
	if err := rctx.config.Validate(); err != nil {
		return err
	}
	fmt.Printf("config ok: base_url=%s prefix=%q ttl=%s simulate=%t\n",
		rctx.config.BaseURL,
		rctx.config.EventPrefix,
		rctx.config.TTLDuration(),
		rctx.config.Simulate,
	)
	return nil
}

type simulateCmd struct {
	actionFlags
}

func (cmd *simulateCmd) Run(rctx *runContext) error {
	ctrl := newController(rctx)
	outcome, err := ctrl.Simulate(context.Background(), cmd.request())
	if err != nil {
		return err
	}
	return printJSON(outcome)
}

type triggerCmd struct {
	actionFlags
	ApprovalID string `help:"Approval id recorded on the action." default:"cli"`
}

func (cmd *triggerCmd) Run(rctx *runContext) error {
	ctrl := newController(rctx)
	ctx := context.Background()

	action, err := ctrl.Propose(ctx, cmd.request())
	if err != nil {
		return err
	}
	if _, err := ctrl.Approve(ctx, action.ID, cmd.ApprovalID); err != nil {
		return err
	}
	result, err := ctrl.Execute(ctx, action.ID)
	if err != nil {
		return err
	}

	final := ctrl.Get(action.ID)
	if !result.Success {
		defer os.Exit(1)
	}
	return printJSON(map[string]any{
		"action": final,
		"result": result,
	})
}

func newController(rctx *runContext) *lifecycle.Controller {
	client := webhook.New(rctx.config, webhook.WithLogger(rctx.logger))
	return lifecycle.New(client,
		lifecycle.WithEventPrefix(rctx.config.EventPrefix),
		lifecycle.WithTTL(rctx.config.TTLDuration()),
		lifecycle.WithLogger(rctx.logger),
	)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func loadConfig(path string) (guardrail.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return guardrail.Config{}, err
	}
	return guardrail.ParseConfig(data)
}

func main() {
	var args cli
	kctx := kong.Parse(&args,
		kong.Name("guardrail"),
		kong.Description("Approval-gated automation guardrail for webhook actuators."),
		kong.UsageOnError(),
	)

	cfg, err := loadConfig(args.Config)
	kctx.FatalIfErrorf(err)

	err = kctx.Run(&runContext{
		config: cfg,
		logger: newLogger(args.Verbose),
	})
	kctx.FatalIfErrorf(err)
}
