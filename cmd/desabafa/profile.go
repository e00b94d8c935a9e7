package main

import (
	"context"
	"fmt"

	"desabafa/pkg/models"

	"github.com/spf13/cobra"
)

var (
	newHandle    string
	showHandle   bool
	hideHandle   bool
	onlyUnread   bool
	markAllRead  bool
	markReadID   int64
	publicHandle string
)

var perfilCmd = &cobra.Command{
	Use:   "perfil",
	Short: "Ver ou editar o seu perfil",
	RunE: withApp(true, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if publicHandle != "" {
			p, err := a.client.PublicProfile(ctx, publicHandle)
			if err != nil {
				return err
			}
			if jsonOutput {
				return printJSON(out, p)
			}
			fmt.Fprintf(out, "%s %s desde %s\n", bold("@"+p.Apelido), p.Plano, p.CreatedAt.Local().Format("02/01/2006"))
			return nil
		}

		upd := models.ProfileUpdate{MostrarApelido: anonFlag(showHandle, hideHandle)}
		if cmd.Flags().Changed("apelido") {
			upd.Apelido = &newHandle
		}

		p := a.board.Session().User()
		if upd.Apelido != nil || upd.MostrarApelido != nil {
			updated, err := a.board.UpdateProfile(ctx, upd)
			if err != nil {
				return err
			}
			p = &updated
		}
		if jsonOutput {
			return printJSON(out, p)
		}
		printProfile(out, *p)
		return nil
	}),
}

var premiumCmd = &cobra.Command{
	Use:   "premium",
	Short: "Assinar o plano premium",
	RunE: withApp(true, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		p, err := a.client.Upgrade(ctx)
		if err != nil {
			return err
		}
		a.board.Session().SetProfile(p)
		fmt.Fprintln(cmd.OutOrStdout(), yellow("Agora você é premium."), "Sem limite diário de posts e comentários.")
		return nil
	}),
}

var notificacoesCmd = &cobra.Command{
	Use:     "notificacoes",
	Aliases: []string{"avisos"},
	Short:   "Ver notificações",
	RunE: withApp(false, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch {
		case markAllRead:
			n, err := a.client.MarkAllRead(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d notificações marcadas como lidas.\n", n)
			return nil
		case markReadID > 0:
			if err := a.client.MarkRead(ctx, markReadID); err != nil {
				return err
			}
			fmt.Fprintln(out, "Marcada como lida.")
			return nil
		}

		list, err := a.client.Notifications(ctx, onlyUnread)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(out, list)
		}
		if len(list) == 0 {
			fmt.Fprintln(out, faint("Nenhuma notificação."))
		}
		for _, n := range list {
			printNotification(out, n)
		}
		return nil
	}),
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Acompanhar a sessão em tempo real",
	Long: `Mantém a conexão com o servidor e mostra cada mudança de sessão:
login, renovação de token, troca de perfil e logout em outro dispositivo.`,
	RunE: withApp(false, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		cancel := a.board.Session().Watch(func(p *models.Profile) {
			if p == nil {
				fmt.Fprintln(out, faint("sem sessão"))
				return
			}
			fmt.Fprintln(out, green("sessão:"), bold("@"+p.Apelido), faint(string(p.Plano)))
			// notifications are pulled, so check for unread ones on each change
			if list, err := a.client.Notifications(ctx, true); err == nil && len(list) > 0 {
				fmt.Fprintln(out, yellow(fmt.Sprintf("%d notificações não lidas", len(list))))
			}
		})
		defer cancel()

		if err := a.board.Start(ctx); err != nil {
			return err
		}
		defer a.board.Stop()

		fmt.Fprintln(out, faint("Ctrl+C para sair"))
		<-ctx.Done()
		return nil
	}),
}

func init() {
	perfilCmd.Flags().StringVar(&newHandle, "apelido", "", "novo apelido")
	perfilCmd.Flags().BoolVar(&showHandle, "mostrar-apelido", false, "assinar posts com o apelido por padrão")
	perfilCmd.Flags().BoolVar(&hideHandle, "esconder-apelido", false, "publicar anônimo por padrão")
	perfilCmd.Flags().StringVar(&publicHandle, "ver", "", "ver o perfil público de outro apelido")
	perfilCmd.MarkFlagsMutuallyExclusive("mostrar-apelido", "esconder-apelido")

	notificacoesCmd.Flags().BoolVar(&onlyUnread, "nao-lidas", false, "só as não lidas")
	notificacoesCmd.Flags().BoolVar(&markAllRead, "marcar-todas", false, "marcar todas como lidas")
	notificacoesCmd.Flags().Int64Var(&markReadID, "marcar", 0, "marcar uma notificação como lida")
}
