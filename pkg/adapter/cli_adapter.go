package adapter

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/chzyer/readline"

	"menubot/bot-app/pkg/log"
	"menubot/bot-app/pkg/model"
	"menubot/bot-app/pkg/session"
)

// cliSessionKey identifies the single local console session.
const cliSessionKey = "cli:local"

// CLIAdapter drives the bot from a local console. Plain lines are treated
// like typed chat messages; lines starting with '/' address command scopes
// directly, which is handy for operations the console has no buttons for.
type CLIAdapter struct {
	sessionManager *session.SessionManager
	cfg            *model.Config
	logger         *log.Logger
	rl             *readline.Instance
	stopOnce       sync.Once
	done           chan struct{}
	wg             sync.WaitGroup
}

// NewCLIAdapter creates a CLI adapter bound to the shared session manager.
func NewCLIAdapter(am *AdapterManager, cfg *model.Config, logger *log.Logger) (*CLIAdapter, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline instance: %w", err)
	}

	return &CLIAdapter{
		sessionManager: am.SessionManager(),
		cfg:            cfg,
		logger:         logger,
		rl:             rl,
		done:           make(chan struct{}),
	}, nil
}

// GetType returns the adapter type.
func (a *CLIAdapter) GetType() string {
	return "cli"
}

// AdapterStart begins the console read loop.
func (a *CLIAdapter) AdapterStart() error {
	a.sessionManager.SessionGetOrCreate(cliSessionKey, a.cfg.BootstrapAdminID, "console")

	renders, err := a.sessionManager.CommandRun(cliSessionKey, model.Command{Scope: "session", Operation: "start"})
	if err != nil {
		return fmt.Errorf("failed to start console session: %w", err)
	}
	a.printRenders(renders)

	a.wg.Add(1)
	go a.readLoop()
	return nil
}

// AdapterStop terminates the read loop.
func (a *CLIAdapter) AdapterStop() error {
	a.stopOnce.Do(func() {
		close(a.done)
		a.rl.Close()
	})
	a.wg.Wait()
	return nil
}

func (a *CLIAdapter) readLoop() {
	defer a.wg.Done()

	for {
		select {
		case <-a.done:
			return
		default:
		}

		line, err := a.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			a.logger.Error(context.Background(), "Console read failed", log.Fields{"error": err})
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return
		}

		cmd := a.parseLine(line)
		renders, err := a.sessionManager.CommandRun(cliSessionKey, cmd)
		if err != nil {
			fmt.Println("Error:", err)
			continue
		}
		a.printRenders(renders)
	}
}

// parseLine turns a console line into a command. '/scope op args...' is a
// direct command; anything else is free text.
func (a *CLIAdapter) parseLine(line string) model.Command {
	if strings.HasPrefix(line, "/") {
		fields := strings.Fields(line[1:])
		if len(fields) >= 2 {
			return model.Command{Scope: fields[0], Operation: fields[1], Args: fields[2:]}
		}
		if len(fields) == 1 && fields[0] == "start" {
			return model.Command{Scope: "session", Operation: "start"}
		}
	}
	return model.Command{Scope: "input", Operation: "text", Args: []string{line}}
}

func (a *CLIAdapter) printRenders(renders []model.Render) {
	for _, r := range renders {
		switch v := r.(type) {
		case model.RenderMenu:
			fmt.Println(v.Title)
			for _, label := range v.Labels {
				fmt.Println("  [" + label + "]")
			}
			if len(v.NavLabels) > 0 {
				fmt.Println("  (" + strings.Join(v.NavLabels, " | ") + ")")
			}
		case model.RenderText:
			fmt.Println(v.Text)
		case model.RenderContent:
			if v.Text != "" {
				fmt.Printf("<%s %s> %s\n", v.Kind, v.FileID, v.Text)
			} else {
				fmt.Printf("<%s %s>\n", v.Kind, v.FileID)
			}
		case model.RenderManage:
			fmt.Println(v.Title)
			for _, action := range v.Actions {
				cmd := action.Command
				fmt.Printf("  %s: /%s %s %s\n", action.Label, cmd.Scope, cmd.Operation, strings.Join(cmd.Args, " "))
			}
		case model.RenderAdminList:
			fmt.Println("Admins:")
			for _, admin := range v.Admins {
				fmt.Printf("  %d %s\n", admin.UserID, admin.DisplayName)
			}
		case model.RenderPrompt:
			fmt.Println(v.Text)
		}
	}
}
