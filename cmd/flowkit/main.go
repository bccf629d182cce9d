package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	openai "github.com/sashabaranov/go-openai"

	flowkit "flowkit"
	"flowkit/flows"
	"flowkit/nodes"
	"flowkit/providers"
	"flowkit/telemetry"
)

func main() {
	input := flag.String("input", "What is a flow engine?", "input text for the pipeline")
	model := flag.String("model", "", "model specifier, e.g. openai/gpt-4o")
	metricsAddr := flag.String("metrics", "", "serve Prometheus metrics on this address, e.g. :9090")
	flag.Parse()

	logger := telemetry.Setup()

	registry := providers.NewRegistry[providers.LLMFunc]()
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		if err := registry.Register("openai", providers.OpenAIChat(openai.NewClient(key))); err != nil {
			logger.Error("registering openai provider", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("OPENAI_API_KEY not set, using local echo provider")
		if err := registry.Register("echo", echoProvider); err != nil {
			logger.Error("registering echo provider", "error", err)
			os.Exit(1)
		}
	}

	metrics := telemetry.NewMetrics(prometheus.DefaultRegisterer)
	if *metricsAddr != "" {
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
				logger.Error("metrics listener failed", "error", err)
			}
		}()
	}

	summarize := nodes.LLM(registry, nodes.LLMConfig{
		Name:     "summarize",
		Model:    *model,
		Template: "Answer concisely:\n\n{input}",
	})
	report := flowkit.NewNode("report",
		flowkit.WithPost(func(_ context.Context, shared flowkit.Shared, _, _ any) (flowkit.Action, error) {
			fmt.Println(shared["output"])
			return "done", nil
		}),
	)
	summarize.Then(report)

	flow := flows.NewFlowBuilder("demo", summarize).
		WithMonitor(telemetry.NewLogMonitor(logger)).
		WithMonitor(metrics).
		Build()

	shared := flowkit.Shared{"input": *input}
	action, err := flow.Run(context.Background(), shared)
	if err != nil {
		logger.Error("flow run failed", "error", err)
		os.Exit(1)
	}
	logger.Info("flow finished", "terminal_action", string(action))
}

func echoProvider(_ context.Context, prompt, model string, _ map[string]any) (string, error) {
	lines := strings.Split(strings.TrimSpace(prompt), "\n")
	return fmt.Sprintf("[echo %s] %s", model, lines[len(lines)-1]), nil
}
