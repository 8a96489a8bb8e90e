// Command snapocr captures a screen region, recognizes its text, and
// delivers the result to stdout, the clipboard, or a pinned window.
//
// Without flags it runs one capture session and exits. With --ui it
// stays resident: tray icon, global hotkey, and a loopback port that
// later one-shot invocations delegate their captures to. With --file
// it recognizes an existing image without any UI.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"snapocr/config"
	"snapocr/recognize"
	"snapocr/recognize/tesseract"
	"snapocr/recognize/vision"
)

const version = "2.0.0"

// errSilent exits with status 1 and no message. Cancellations and empty
// captures are outcomes, not errors worth printing.
var errSilent = errors.New("silent exit")

type flags struct {
	ui      bool
	file    string
	lang    string
	latex   bool
	noLatex bool
	clip    bool
	envFile string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if errors.Is(err, errSilent) {
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "snapocr",
		Short: "Screen capture to text",
		Long: "SnapOCR captures a screen region and recognizes its text.\n" +
			"Accepted results go to stdout and the clipboard; results can\n" +
			"also be pinned on screen as small always-on-top windows.",
		Version:       version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(f)
		},
	}
	cmd.Flags().BoolVar(&f.ui, "ui", false, "run resident with tray icon and global hotkey")
	cmd.Flags().StringVar(&f.file, "file", "", "recognize an image file ('-' reads stdin) instead of capturing")
	cmd.Flags().StringVarP(&f.lang, "lang", "l", "", "recognition language hint, tesseract notation")
	cmd.Flags().BoolVar(&f.latex, "latex", false, "force math markup conversion on")
	cmd.Flags().BoolVar(&f.noLatex, "no-latex", false, "force math markup conversion off")
	cmd.Flags().BoolVar(&f.clip, "clip", false, "copy to clipboard only, print nothing")
	cmd.Flags().StringVarP(&f.envFile, "config", "c", "", "alternate env file")
	cmd.MarkFlagsMutuallyExclusive("latex", "no-latex")
	cmd.MarkFlagsMutuallyExclusive("ui", "file")
	return cmd
}

func run(f flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}
	switch {
	case f.file != "":
		return runFile(cfg, f)
	case f.ui:
		return runResident(cfg)
	default:
		return runOneShot(cfg, f)
	}
}

func loadConfig(f flags) (*config.Config, error) {
	opts := config.LoadOptions{
		EnvFileOverride:  f.envFile,
		LanguageOverride: f.lang,
	}
	if f.latex || f.noLatex {
		v := f.latex
		opts.MathMarkupOverride = &v
	}
	return config.LoadWithOptions(opts)
}

func buildPipeline(cfg *config.Config) (*recognize.Pipeline, error) {
	engine, err := buildEngine(cfg)
	if err != nil {
		return nil, err
	}
	return recognize.NewPipeline(recognize.Options{
		Engine:     engine,
		MathMarkup: cfg.MathMarkup,
	}), nil
}

func buildEngine(cfg *config.Config) (recognize.Engine, error) {
	if cfg.Recognizer == config.RecognizerTesseract {
		return tesseract.New(cfg.Language)
	}
	if cfg.APIKey == "" {
		return nil, errors.New("OPENROUTER_API_KEY is required; set it in the environment or .env")
	}
	if cfg.Model == "" {
		return nil, errors.New("MODEL is required; set it in the environment or .env")
	}
	return vision.New(vision.Config{
		APIKey:    cfg.APIKey,
		Model:     cfg.Model,
		Providers: cfg.Providers,
		Language:  cfg.Language,
	}), nil
}

// sessionDeadline maps the configured recognition deadline onto session
// semantics: a configured 0 disables the deadline (negative return),
// otherwise the configured duration applies.
func sessionDeadline(cfg *config.Config) time.Duration {
	if cfg.RecognitionDeadlineSec <= 0 {
		return -1
	}
	return time.Duration(cfg.RecognitionDeadlineSec) * time.Second
}
