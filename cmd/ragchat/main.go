package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"ragchat/internal/adapter/collab"
	"ragchat/internal/adapter/tui/chat"
	"ragchat/internal/adapter/tui/theme"
	"ragchat/internal/adapter/tui/uxerror"
	"ragchat/internal/infra/config"
	"ragchat/internal/infra/logger"
	"ragchat/internal/infra/tracer"
	"ragchat/internal/usecase/interaction"
	"ragchat/internal/usecase/markup"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "--help", "-h", "help":
			showUsage(os.Stdout)
			return
		}
	}

	flags := parseFlags(os.Args[1:])
	command, args := "", []string(nil)
	if len(flags.Args) > 0 {
		command, args = flags.Args[0], flags.Args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch command {
	case "":
		err = runTUI(ctx, flags)
	case "ask":
		err = runAsk(ctx, flags, args, os.Stdout)
	case "upload":
		err = runUpload(ctx, flags, args, os.Stdout)
	case "render":
		err = runRender(os.Stdin, os.Stdout, flags.Plain)
	case "encrypt":
		err = runEncrypt(args, os.Getenv("RAGCHAT_CONFIG_KEY"), os.Stdout)
	case "doctor":
		err = runDoctor(ctx, flags, os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\nRun 'ragchat --help' for usage information.\n", command)
		os.Exit(1)
	}
	if err != nil {
		stop()
		label := command
		if label == "" {
			label = "fatal"
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", label, err)
		for _, hint := range uxerror.Humanize(err).Hints {
			fmt.Fprintf(os.Stderr, "  %s %s\n", theme.SymbolBullet, hint)
		}
		os.Exit(1)
	}
}

func showUsage(w io.Writer) {
	fmt.Fprintln(w, `ragchat - terminal client for a document question-answering service

USAGE:
    ragchat [COMMAND] [FLAGS]

COMMANDS:
    (no command)         Open the chat client
    ask <question>       Ask one question and print the answer
    upload <file>...     Upload files for indexing
    render [--plain]     Render reply text from stdin as HTML (or plain text)
    encrypt <value>      Encrypt a secret for the config file (needs RAGCHAT_CONFIG_KEY)
    doctor               Check config, server and log output

FLAGS:
    -h, --help         Show this help message
    --config PATH      Config file path (default: ./ragchat.yaml)
    --server URL       Server base URL, overrides server.base_url
    --token TOKEN      Anti-forgery token, overrides server.csrf_token

CONFIGURATION:
    Config file: ./ragchat.yaml
    Environment: RAGCHAT_* variables override config; .env is loaded if present

EXAMPLES:
    ragchat --server http://localhost:8000
    ragchat upload handbook.pdf faq.md
    ragchat ask "What is the refund policy?"
    echo "**Hello**" | ragchat render`)
}

// cliFlags are the global flags plus the remaining positional arguments.
type cliFlags struct {
	Config string
	Server string
	Token  string
	Plain  bool
	Args   []string
}

func parseFlags(argv []string) cliFlags {
	var flags cliFlags
	for i := 0; i < len(argv); i++ {
		arg := argv[i]
		switch {
		case arg == "--config" && i+1 < len(argv):
			flags.Config = argv[i+1]
			i++
		case strings.HasPrefix(arg, "--config="):
			flags.Config = strings.TrimPrefix(arg, "--config=")
		case arg == "--server" && i+1 < len(argv):
			flags.Server = argv[i+1]
			i++
		case strings.HasPrefix(arg, "--server="):
			flags.Server = strings.TrimPrefix(arg, "--server=")
		case arg == "--token" && i+1 < len(argv):
			flags.Token = argv[i+1]
			i++
		case strings.HasPrefix(arg, "--token="):
			flags.Token = strings.TrimPrefix(arg, "--token=")
		case arg == "--plain":
			flags.Plain = true
		default:
			flags.Args = append(flags.Args, arg)
		}
	}
	return flags
}

// configPath resolves the config file: --config, then RAGCHAT_CONFIG, then ./ragchat.yaml.
func configPath(flags cliFlags) string {
	if flags.Config != "" {
		return flags.Config
	}
	if p := os.Getenv("RAGCHAT_CONFIG"); p != "" {
		return p
	}
	return "ragchat.yaml"
}

// loadConfig loads the config and applies command-line overrides.
func loadConfig(flags cliFlags) (*config.Config, error) {
	cfg, err := config.Load(configPath(flags))
	if err != nil {
		return nil, err
	}
	if flags.Server != "" {
		cfg.Server.BaseURL = flags.Server
	}
	if flags.Token != "" {
		cfg.Server.CSRFToken = flags.Token
	}
	if flags.Server != "" || flags.Token != "" {
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// app is the wired client shared by every command.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	client *collab.Client
	ctrl   *interaction.Controller
	close  func()
}

func bootstrap(ctx context.Context, flags cliFlags) (*app, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	log, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	// Spans go to the same place as logs so they never land on the screen.
	traceOut, closeTrace, err := logger.OpenOutput(cfg.Logger.Output)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("trace output: %w", err)
	}
	shutdownTracer, err := tracer.Setup(ctx, cfg.Tracer, traceOut)
	if err != nil {
		closeTrace()
		closeLog()
		return nil, fmt.Errorf("tracer: %w", err)
	}

	client, err := collab.New(cfg.Server, cfg.Breaker, collab.WithLogger(logger.Component(log, "collab")))
	if err != nil {
		_ = shutdownTracer(context.Background())
		closeTrace()
		closeLog()
		return nil, err
	}

	theme.ApplySymbols(cfg.UI.ASCIISymbols)

	return &app{
		cfg:    cfg,
		logger: log,
		client: client,
		ctrl:   interaction.NewController(client, logger.Component(log, "interaction")),
		close: func() {
			if err := shutdownTracer(context.Background()); err != nil {
				log.Warn("tracer shutdown", "error", err)
			}
			_ = closeTrace()
			_ = closeLog()
		},
	}, nil
}

func runTUI(ctx context.Context, flags cliFlags) error {
	a, err := bootstrap(ctx, flags)
	if err != nil {
		return err
	}
	defer a.close()

	a.logger.Info("starting chat client", "server", a.cfg.Server.BaseURL)
	return chat.Run(ctx, chat.Deps{
		Controller:  a.ctrl,
		Logger:      logger.Component(a.logger, "tui"),
		AgentName:   a.cfg.UI.AgentName,
		Server:      serverLabel(a.cfg.Server.BaseURL),
		MaxMessages: a.cfg.UI.MaxMessages,
	})
}

func serverLabel(base string) string {
	if u, err := url.Parse(base); err == nil && u.Host != "" {
		return u.Host
	}
	return base
}

func runAsk(ctx context.Context, flags cliFlags, args []string, out io.Writer) error {
	query := strings.Join(args, " ")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("usage: ragchat ask <question>")
	}
	a, err := bootstrap(ctx, flags)
	if err != nil {
		return err
	}
	defer a.close()

	return ask(ctx, a.ctrl, query, out)
}

// ask runs one query through ctrl and prints the reply. An error entry is
// printed too, and also returned.
func ask(ctx context.Context, ctrl *interaction.Controller, query string, out io.Writer) error {
	if !ctrl.Run(ctx, ctrl.SubmitQuery(query)) {
		return fmt.Errorf("nothing to ask")
	}

	entries := ctrl.Entries()
	last := entries[len(entries)-1]
	if last.IsError {
		return fmt.Errorf("%s", last.Text)
	}
	fmt.Fprintln(out, markup.PlainText(last.Blocks))
	return nil
}

func runUpload(ctx context.Context, flags cliFlags, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: ragchat upload <file>...")
	}
	files, err := collab.StatFiles(args)
	if err != nil {
		return err
	}
	a, err := bootstrap(ctx, flags)
	if err != nil {
		return err
	}
	defer a.close()

	a.ctrl.OnFileSelectionChanged(files)
	return upload(ctx, a.ctrl, out)
}

// upload sends the controller's selection and prints the status line.
func upload(ctx context.Context, ctrl *interaction.Controller, out io.Writer) error {
	for _, label := range ctrl.Snapshot().SelectionLabels {
		fmt.Fprintf(out, "%s %s\n", theme.SymbolBullet, label)
	}
	ctrl.Run(ctx, ctrl.SubmitUpload())

	st := ctrl.Snapshot().UploadStatus
	if st.Kind == interaction.StatusError {
		return fmt.Errorf("%s", st.Text)
	}
	fmt.Fprintf(out, "%s %s\n", theme.SymbolSuccess, st.Text)
	return nil
}

func runRender(in io.Reader, out io.Writer, plain bool) error {
	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	blocks := markup.Render(string(raw))
	if plain {
		fmt.Fprintln(out, markup.PlainText(blocks))
		return nil
	}
	fmt.Fprintln(out, markup.HTML(blocks))
	return nil
}

func runEncrypt(args []string, passphrase string, out io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: ragchat encrypt <value>")
	}
	if passphrase == "" {
		return fmt.Errorf("RAGCHAT_CONFIG_KEY must be set")
	}
	enc, err := config.EncryptValue(args[0], passphrase)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "enc:"+enc)
	return nil
}
