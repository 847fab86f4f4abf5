package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/easeaico/truthlab/internal/analysis"
	"github.com/easeaico/truthlab/internal/capture"
	"github.com/easeaico/truthlab/internal/session"
	"github.com/easeaico/truthlab/internal/types"
)

var errScanStalled = errors.New("scan finished without a captured frame")

func newScanCmd(flags *globalFlags) *cobra.Command {
	var (
		imagePath string
		langFlag  string
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one timed scan against a still image and save the result",
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

			client, err := analysis.New(ctx, &cfg)
			if err != nil {
				return fmt.Errorf("failed to create analysis client: %w", err)
			}

			var camera capture.Camera = capture.NoCamera{Reason: "no --image given"}
			if imagePath != "" {
				camera = capture.NewFileCamera(imagePath)
			}
			timing := capture.DefaultOptions(nil)
			timing.Threshold = cfg.CaptureThreshold

			out := cmd.OutOrStdout()
			p := &progressPrinter{w: out}
			ctrl := session.New(client, store, session.Config{
				Camera:   camera,
				Timing:   timing,
				OnChange: p.update,
			})
			defer ctrl.Close()

			if err := ctrl.Restore(ctx); err != nil {
				return err
			}
			if prev := ctrl.Snapshot(); prev.Result != nil {
				fmt.Fprintf(out, "replacing saved result %q (%s)\n", prev.Result.Title, prev.Result.ID)
			}

			if _, err := ctrl.Start(ctx, lang); err != nil {
				return err
			}
			view, err := ctrl.Wait(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintln(out)
			switch {
			case view.State == types.StateResult:
				printResult(out, view.Result)
				return nil
			case view.State == types.StateError:
				fmt.Fprintf(out, "Analysis failed: %s\n", view.Error)
				return fmt.Errorf("analysis failed: %s", view.ErrorKind)
			default:
				fmt.Fprintln(out, "No frame was captured, so no analysis ran. Run the scan again with a readable --image.")
				return errScanStalled
			}
		},
	}
	cmd.Flags().StringVar(&imagePath, "image", "", "face image (jpeg, png, gif or webp) used as the camera")
	cmd.Flags().StringVar(&langFlag, "lang", string(types.LanguageHindi), "report language: hi or en")
	return cmd
}

// progressPrinter writes progress in 10% steps and each new message.
type progressPrinter struct {
	mu          sync.Mutex
	w           io.Writer
	lastStep    int
	lastMessage string
	cameraShown bool
}

func (p *progressPrinter) update(v session.View) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v.CameraError && !p.cameraShown {
		p.cameraShown = true
		fmt.Fprintln(p.w, "camera unavailable, continuing without a preview")
	}
	if v.Message != "" && v.Message != p.lastMessage {
		p.lastMessage = v.Message
		fmt.Fprintf(p.w, "  %s\n", v.Message)
	}
	if step := int(math.Floor(v.Progress / 10)); step > p.lastStep {
		p.lastStep = step
		fmt.Fprintf(p.w, "[%3d%%]\n", step*10)
	}
}

func printResult(w io.Writer, r *types.PersonalityResult) {
	fmt.Fprintf(w, "%s  (%s)\n\n", r.Title, r.ID)
	fmt.Fprintf(w, "%s\n\n", r.Description)
	fmt.Fprintf(w, "\"%s\"\n\n", r.DarkLine)
	fmt.Fprintln(w, "Strengths:")
	for _, t := range r.Traits {
		fmt.Fprintf(w, "  + %s\n", t)
	}
	fmt.Fprintln(w, "Flaws:")
	for _, t := range r.Weaknesses {
		fmt.Fprintf(w, "  - %s\n", t)
	}
	if r.ShareHook != "" {
		fmt.Fprintf(w, "\n%s\n", r.ShareHook)
	}
}
