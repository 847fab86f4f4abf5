package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/easeaico/truthlab/internal/certificate"
	"github.com/easeaico/truthlab/internal/types"
)

func newShowCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the saved result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			store, closeStore, err := openResultStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			result, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}
			if result == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "no saved result")
				return nil
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newResetCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Delete the saved result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			store, closeStore, err := openResultStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "saved result cleared")
			return nil
		},
	}
}

func newCertificateCmd(flags *globalFlags) *cobra.Command {
	var (
		name     string
		outDir   string
		langFlag string
		wait     bool
	)
	cmd := &cobra.Command{
		Use:   "certificate",
		Short: "Render the saved result as a PNG report card",
		RunE: func(cmd *cobra.Command, args []string) error {
			lang, err := parseLang(langFlag)
			if err != nil {
				return err
			}
			cfg, err := flags.load()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, closeStore, err := openResultStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			result, err := store.Load(ctx)
			if err != nil {
				return err
			}
			renderer, err := certificate.NewRenderer(certificateConfig(cfg))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if result == nil {
				return fmt.Errorf("%s", renderer.ValidationMessage(certificate.ErrResultRequired, lang))
			}
			if _, err := certificate.ValidateName(name, renderer.Config().ReservedToken); err != nil {
				return fmt.Errorf("%s", renderer.ValidationMessage(err, lang))
			}

			render := func() error {
				cert, err := renderer.Render(result, name, lang, time.Now())
				if err != nil {
					return err
				}
				path := filepath.Join(outDir, cert.Filename)
				if err := os.WriteFile(path, cert.PNG, 0o644); err != nil {
					return fmt.Errorf("failed to write certificate: %w", err)
				}
				fmt.Fprintf(out, "certificate written to %s\n", path)
				return nil
			}
			if !wait {
				return render()
			}

			title := "Generating Formal Report"
			if lang == types.LanguageHindi {
				title = "Aapki report taiyaar ho rahi hai"
			}
			fmt.Fprintln(out, title)
			return certificate.NewGate(renderer.Config().Interstitial).Run(ctx, func(remaining int) {
				fmt.Fprintf(out, "  %ds\n", remaining)
			}, render)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "name printed on the certificate (required)")
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory")
	cmd.Flags().StringVar(&langFlag, "lang", string(types.LanguageHindi), "certificate language: hi or en")
	cmd.Flags().BoolVar(&wait, "wait", false, "show the interstitial countdown before rendering")
	return cmd
}
