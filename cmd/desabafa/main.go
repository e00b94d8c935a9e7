// Command desabafa is the terminal client of the confession board.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"desabafa/pkg/board"
	"desabafa/pkg/board/remote"
	"desabafa/pkg/logger"
	"desabafa/pkg/models"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "desabafa",
	Short:         "Desabafa no terminal",
	Long:          "Leia o feed, desabafe, comente e curta sem sair do terminal.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initConfig(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		level := viper.GetString("log.level")
		if verbose {
			level = "debug"
		}
		return logger.Initialize(level, "")
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log detalhado")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "arquivo de config (padrão ~/.config/desabafa/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "saída em JSON")
	rootCmd.PersistentFlags().String("api", "", "URL da API")
	_ = viper.BindPFlag("api.url", rootCmd.PersistentFlags().Lookup("api"))

	rootCmd.AddCommand(loginCmd, tokenCmd, logoutCmd)
	rootCmd.AddCommand(feedCmd, postarCmd, apagarPostCmd)
	rootCmd.AddCommand(comentariosCmd, comentarCmd, apagarComentarioCmd, curtirCmd)
	rootCmd.AddCommand(perfilCmd, premiumCmd, notificacoesCmd, watchCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, red("erro:"), describe(err))
		os.Exit(1)
	}
}

// app is what every command works with: an API client carrying the stored
// tokens and the board built on top of it.
type app struct {
	client *remote.Client
	events *remote.Events
	board  *board.Board
}

func newApp() (*app, error) {
	client := remote.New(viper.GetString("api.url"), viper.GetDuration("api.timeout"))
	client.SetTokens(loadTokens())
	client.OnTokens(func(t remote.Tokens) {
		if err := saveTokens(t); err != nil {
			fmt.Fprintln(os.Stderr, yellow("aviso:"), "não foi possível salvar os tokens:", err)
		}
	})

	events, err := remote.NewEvents(client.BaseURL(), func() string { return client.Tokens().Access })
	if err != nil {
		return nil, err
	}
	return &app{client: client, events: events, board: board.New(client, events)}, nil
}

// signIn resolves the session once, for commands that need a user.
func (a *app) signIn(ctx context.Context) (*models.Profile, error) {
	if a.client.Tokens().Empty() {
		return nil, board.ErrUnauthenticated
	}
	return a.board.Session().Resolve(ctx)
}

// withApp builds the app and, when auth is set, signs in before run.
func withApp(auth bool, run func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if auth {
			if _, err := a.signIn(ctx); err != nil {
				return err
			}
		}
		return run(ctx, a, cmd, args)
	}
}
