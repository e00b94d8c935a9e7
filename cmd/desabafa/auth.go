package main

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"desabafa/pkg/apperr"

	"github.com/spf13/cobra"
)

var (
	loginCallback string
	logoutAll     bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Entrar com a conta Google",
	Long: `Abre o login do Google no navegador. Depois de entrar, cole aqui o
endereço para onde o navegador foi redirecionado (ou só o trecho após #).`,
	RunE: withApp(false, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		raw := loginCallback
		if raw == "" {
			fmt.Fprintln(out, "Abra no navegador:")
			fmt.Fprintln(out, " ", cyan(a.client.LoginURL()))
			fmt.Fprint(out, "Cole o endereço de retorno: ")

			sc := bufio.NewScanner(cmd.InOrStdin())
			if !sc.Scan() {
				return apperr.Unauthorized("Login cancelado")
			}
			raw = sc.Text()
		}

		if err := a.client.AdoptFragment(fragmentOf(raw)); err != nil {
			return err
		}
		p, err := a.signIn(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, green("Bem-vindo,"), bold("@"+p.Apelido))
		return nil
	}),
}

// fragmentOf accepts a full callback URL or just its fragment.
func fragmentOf(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		return raw[i+1:]
	}
	return raw
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mostrar o access token atual, renovando se preciso",
	RunE: withApp(false, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		t := a.client.Tokens()
		if t.Empty() {
			return apperr.Unauthorized("")
		}
		if !t.ExpiresAt.IsZero() && time.Until(t.ExpiresAt) < time.Minute {
			if _, err := a.client.Refresh(ctx); err != nil {
				return err
			}
			t = a.client.Tokens()
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), t)
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Access)
		return nil
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sair desta sessão (ou de todas com --todas)",
	RunE: withApp(false, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		var err error
		if logoutAll {
			err = a.client.LogoutAll(ctx)
		} else {
			err = a.client.Logout(ctx)
		}
		if err != nil && !apperr.HasCode(err, apperr.CodeUnauthorized) {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Sessão encerrada.")
		return nil
	}),
}

func init() {
	loginCmd.Flags().StringVar(&loginCallback, "callback", "", "endereço de retorno do login, sem perguntar")
	logoutCmd.Flags().BoolVar(&logoutAll, "todas", false, "encerrar todas as sessões")
}
