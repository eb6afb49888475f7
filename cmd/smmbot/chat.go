package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Wyvern137/hackathon/internal/adapters/console"
	"github.com/Wyvern137/hackathon/internal/flows"
	"github.com/Wyvern137/hackathon/pkg/dispatch"
	"github.com/Wyvern137/hackathon/pkg/domain"
	"github.com/Wyvern137/hackathon/pkg/flow"
	"github.com/Wyvern137/hackathon/pkg/ports"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd)
		if err != nil {
			return err
		}
		defer app.close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go app.evict(ctx)

		transport := console.New(console.WithLogger(app.logger))

		engine := flow.NewEngine(app.sessions, transport,
			flow.WithLogger(app.logger),
			flow.WithMetrics(app.metrics),
		)
		if err := engine.Register(flows.All(flows.Deps{
			Gen:      app.generator,
			Images:   app.images,
			Records:  app.store,
			Profiles: app.store,
			Tagger:   app.tagger,
			Logger:   app.logger,
		})...); err != nil {
			return err
		}

		showMenu := func(ctx context.Context, e domain.Event) error {
			_, err := transport.Send(ctx, e.ChatID, mainMenu())
			return err
		}
		d := dispatch.New(engine,
			dispatch.WithLogger(app.logger),
			dispatch.WithFallback(showMenu),
		)
		d.Handle(flows.LabelStats, func(ctx context.Context, e domain.Event) error {
			report, err := app.stats.Report(ctx, e.UserID, 30*24*time.Hour)
			if err != nil {
				return err
			}
			var b strings.Builder
			fmt.Fprintf(&b, "За месяц: %d публикаций, %d сохранено.\n", report.Total, report.Saved)
			if report.TopStyle != "" {
				fmt.Fprintf(&b, "Любимый стиль: %s.\n", report.TopStyle)
			}
			fmt.Fprintf(&b, "Лучшие часы для постов: %s.\n\n", formatHours(report.TopHours))
			for _, r := range report.Recommendations {
				fmt.Fprintf(&b, "💡 %s\n", r)
			}
			_, serr := transport.Send(ctx, e.ChatID, ports.Message{Text: b.String()})
			return serr
		})

		if _, err := transport.Send(ctx, console.UserID, mainMenu()); err != nil {
			return err
		}
		return transport.Run(ctx, d.Dispatch)
	},
}

func mainMenu() ports.Message {
	return ports.Message{
		Text: "Привет! Я помогу с контентом. Что делаем?",
		Buttons: [][]ports.Button{
			{{Label: flows.LabelProfile, Data: ""}},
			{{Label: flows.LabelFreeText, Data: ""}},
			{{Label: flows.LabelStructured, Data: ""}},
			{{Label: flows.LabelExamples, Data: ""}},
			{{Label: flows.LabelImage, Data: ""}},
			{{Label: flows.LabelPlan, Data: ""}},
			{{Label: flows.LabelTemplate, Data: ""}},
			{{Label: flows.LabelTeam, Data: ""}},
			{{Label: flows.LabelABTest, Data: ""}},
			{{Label: flows.LabelSeries, Data: ""}},
			{{Label: flows.LabelStats, Data: ""}},
		},
	}
}

func formatHours(hours []int) string {
	parts := make([]string, 0, len(hours))
	for _, h := range hours {
		parts = append(parts, fmt.Sprintf("%02d:00", h))
	}
	return strings.Join(parts, ", ")
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
