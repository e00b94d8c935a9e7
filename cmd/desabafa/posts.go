package main

import (
	"context"
	"fmt"
	"strings"

	"desabafa/pkg/apperr"
	"desabafa/pkg/board"
	"desabafa/pkg/models"

	"github.com/spf13/cobra"
)

var (
	feedTipo   string
	feedEmAlta bool
	feed24h    bool
	feedLimit  int

	postTipo     string
	postAnonimo  bool
	postAssinado bool

	pageSize      int
	pageOrder     string
	pageAll       bool
	expandRoots   []string
	replyTo       string
	commentAnon   bool
	commentSigned bool
	reactionPost  string
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Ler o feed",
	RunE: withApp(false, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		f := models.FeedFilter{
			Tipo:   models.Category(feedTipo),
			Ordem:  models.FeedRecent,
			Last24: feed24h,
			Limit:  feedLimit,
		}
		if feedEmAlta {
			f.Ordem = models.FeedTrending
		}
		posts, err := a.client.Feed(ctx, f)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), posts)
		}
		if len(posts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), faint("Nada por aqui ainda."))
		}
		for _, p := range posts {
			printPost(cmd.OutOrStdout(), p)
		}
		return nil
	}),
}

// anonFlag turns a pair of opposite flags into the optional request field.
func anonFlag(anon, signed bool) *bool {
	switch {
	case anon:
		v := true
		return &v
	case signed:
		v := false
		return &v
	}
	return nil
}

var postarCmd = &cobra.Command{
	Use:   "postar <texto>",
	Short: "Publicar um desabafo, confissão ou fofoca",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(true, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		p, err := a.board.SubmitPost(ctx, models.NewPost{
			Tipo:     models.Category(postTipo),
			Conteudo: strings.Join(args, " "),
			Anonimo:  anonFlag(postAnonimo, postAssinado),
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), p)
		}
		printPost(cmd.OutOrStdout(), p)
		return nil
	}),
}

var apagarPostCmd = &cobra.Command{
	Use:   "apagar-post <id>",
	Short: "Remover um post seu",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(false, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		if err := a.client.DeletePost(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Post removido.")
		return nil
	}),
}

// openView loads the first page of postID, then every page with --todos.
func openView(ctx context.Context, a *app, postID string) (*board.CommentView, error) {
	view := a.board.NewCommentView(pageSize, models.ParseCommentOrder(pageOrder))
	if err := view.Open(ctx, postID); err != nil {
		return nil, err
	}
	for pageAll && view.State().HasMore {
		if err := view.LoadMore(ctx); err != nil {
			return nil, err
		}
	}
	for _, id := range expandRoots {
		view.Expand(id)
	}
	return view, nil
}

var comentariosCmd = &cobra.Command{
	Use:   "comentarios <post-id>",
	Short: "Ler os comentários de um post",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(false, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		// a viewer only matters for ja_curtiu
		if !a.client.Tokens().Empty() {
			_, _ = a.signIn(ctx)
		}
		view, err := openView(ctx, a, args[0])
		if err != nil {
			return err
		}
		st := view.State()
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), models.CommentPage{Comentarios: st.Comments, Total: st.Total})
		}

		out := cmd.OutOrStdout()
		printThreads(out, view.Threads())
		fmt.Fprintln(out, faint(fmt.Sprintf("%d de %d comentários", st.Loaded(), st.Total)))
		if st.HasMore {
			fmt.Fprintln(out, faint("use --todos para carregar o resto"))
		}
		return nil
	}),
}

var comentarCmd = &cobra.Command{
	Use:   "comentar <post-id> <texto>",
	Short: "Comentar num post (ou responder com --resposta)",
	Args:  cobra.MinimumNArgs(2),
	RunE: withApp(true, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		view, err := openView(ctx, a, args[0])
		if err != nil {
			return err
		}
		nc := models.NewComment{
			Conteudo: strings.Join(args[1:], " "),
			Anonimo:  anonFlag(commentAnon, commentSigned),
		}
		if replyTo != "" {
			nc.ParentID = &replyTo
		}

		c, err := a.board.SubmitComment(ctx, view, nc)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), c)
		}
		printComment(cmd.OutOrStdout(), c, "")
		left := a.board.Session().Tracker().Remaining(models.QuotaComment)
		if left != models.Unlimited {
			fmt.Fprintln(cmd.OutOrStdout(), faint(fmt.Sprintf("restam %d comentários hoje", left)))
		}
		return nil
	}),
}

var apagarComentarioCmd = &cobra.Command{
	Use:   "apagar-comentario <id>",
	Short: "Remover um comentário seu",
	Args:  cobra.ExactArgs(1),
	RunE: withApp(false, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		if err := a.client.DeleteComment(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Comentário removido.")
		return nil
	}),
}

var curtirCmd = &cobra.Command{
	Use:       "curtir <post|comentario> <id>",
	Short:     "Curtir ou descurtir um post ou comentário",
	Args:      cobra.ExactArgs(2),
	ValidArgs: []string{string(board.TargetPost), string(board.TargetComment)},
	RunE: withApp(true, func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
		target, initial, err := resolveTarget(ctx, a, board.TargetKind(args[0]), args[1])
		if err != nil {
			return err
		}
		st, err := a.board.ToggleReaction(ctx, target, initial)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), models.ReactionResult{Liked: st.Liked, Total: st.Count})
		}
		fmt.Fprintln(cmd.OutOrStdout(), heart(st.Liked, st.Count))
		return nil
	}),
}

// resolveTarget looks the item up so the toggle starts from the server's
// view and the author is known. Comments need --post to be found.
func resolveTarget(ctx context.Context, a *app, kind board.TargetKind, id string) (board.Target, board.ReactionState, error) {
	switch kind {
	case board.TargetPost:
		p, err := a.client.Post(ctx, id)
		if err != nil {
			return board.Target{}, board.ReactionState{}, err
		}
		return board.PostTarget(p), board.ReactionState{Liked: p.JaCurtiu, Count: p.TotalReacoes}, nil
	case board.TargetComment:
		if reactionPost == "" {
			return board.Target{}, board.ReactionState{}, apperr.Validation("post", "Informe --post com o post do comentário")
		}
		pageAll = true
		view, err := openView(ctx, a, reactionPost)
		if err != nil {
			return board.Target{}, board.ReactionState{}, err
		}
		for _, c := range view.State().Comments {
			if c.ID == id {
				return board.CommentTarget(c), board.ReactionState{Liked: c.JaCurtiu, Count: c.TotalReacoes}, nil
			}
		}
		return board.Target{}, board.ReactionState{}, apperr.NotFound("Comentário")
	}
	return board.Target{}, board.ReactionState{}, apperr.Validation("tipo", "Use post ou comentario")
}

func init() {
	feedCmd.Flags().StringVar(&feedTipo, "tipo", "", "desabafo, confissao ou fofoca")
	feedCmd.Flags().BoolVar(&feedEmAlta, "em-alta", false, "ordenar pelos posts em alta")
	feedCmd.Flags().BoolVar(&feed24h, "24h", false, "só as últimas 24 horas")
	feedCmd.Flags().IntVar(&feedLimit, "limite", 0, "quantidade de posts")

	postarCmd.Flags().StringVar(&postTipo, "tipo", string(models.CategoryDesabafo), "desabafo, confissao ou fofoca")
	postarCmd.Flags().BoolVar(&postAnonimo, "anonimo", false, "publicar sem apelido")
	postarCmd.Flags().BoolVar(&postAssinado, "assinado", false, "publicar com apelido")
	postarCmd.MarkFlagsMutuallyExclusive("anonimo", "assinado")

	for _, c := range []*cobra.Command{comentariosCmd, comentarCmd} {
		c.Flags().IntVar(&pageSize, "pagina", 10, "comentários por página")
		c.Flags().StringVar(&pageOrder, "ordem", string(models.OrderAsc), "asc ou desc")
		c.Flags().BoolVar(&pageAll, "todos", false, "carregar todas as páginas")
		c.Flags().StringSliceVar(&expandRoots, "expandir", nil, "ids de comentários com respostas a expandir")
	}
	comentarCmd.Flags().StringVar(&replyTo, "resposta", "", "id do comentário respondido")
	comentarCmd.Flags().BoolVar(&commentAnon, "anonimo", false, "comentar sem apelido")
	comentarCmd.Flags().BoolVar(&commentSigned, "assinado", false, "comentar com apelido")
	comentarCmd.MarkFlagsMutuallyExclusive("anonimo", "assinado")

	curtirCmd.Flags().StringVar(&reactionPost, "post", "", "post do comentário (obrigatório para comentários)")
}
