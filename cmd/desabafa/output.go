package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"desabafa/pkg/apperr"
	"desabafa/pkg/board"
	"desabafa/pkg/models"

	"github.com/fatih/color"
)

var (
	bold    = color.New(color.Bold).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
	cyan    = color.New(color.FgCyan).SprintFunc()
	green   = color.New(color.FgGreen).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
	red     = color.New(color.FgRed, color.Bold).SprintFunc()
	magenta = color.New(color.FgMagenta).SprintFunc()
)

var jsonOutput bool

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func author(autorID *string, handle string) string {
	if autorID == nil || handle == "" {
		return faint("anônimo")
	}
	return cyan("@" + handle)
}

func heart(liked bool, n int) string {
	if liked {
		return red(fmt.Sprintf("♥ %d", n))
	}
	return fmt.Sprintf("♡ %d", n)
}

func ago(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "agora"
	case d < time.Hour:
		return fmt.Sprintf("%dmin", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return t.Local().Format("02/01/2006")
	}
}

func printPost(w io.Writer, p models.Post) {
	tag := magenta("#" + string(p.Tipo))
	if p.EmAlta {
		tag += " " + yellow("em alta")
	}
	fmt.Fprintf(w, "%s %s %s %s\n", bold(p.ID), tag, author(p.AutorID, p.AutorApelido), faint(ago(p.CreatedAt)))
	fmt.Fprintf(w, "  %s\n", p.Conteudo)
	fmt.Fprintf(w, "  %s  💬 %d\n\n", heart(p.JaCurtiu, p.TotalReacoes), p.TotalComentarios)
}

func printComment(w io.Writer, c models.Comment, indent string) {
	if c.Deleted {
		fmt.Fprintf(w, "%s%s %s\n", indent, faint(c.ID), faint("[removido]"))
		return
	}
	fmt.Fprintf(w, "%s%s %s %s %s\n", indent, faint(c.ID), author(c.AutorID, c.AutorApelido), faint(ago(c.CreatedAt)), heart(c.JaCurtiu, c.TotalReacoes))
	fmt.Fprintf(w, "%s  %s\n", indent, c.Conteudo)
}

func printThreads(w io.Writer, threads []board.Thread) {
	for _, t := range threads {
		printComment(w, t.Root, "")
		for _, r := range t.Replies {
			printComment(w, r, "    ↳ ")
		}
		if t.Hidden > 0 {
			fmt.Fprintf(w, "    %s\n", faint(fmt.Sprintf("ver mais %d respostas (--expandir %s)", t.Hidden, t.Root.ID)))
		}
	}
}

func quotaLine(used, limit int) string {
	if limit == models.Unlimited {
		return green("ilimitado")
	}
	s := fmt.Sprintf("%d/%d", used, limit)
	if used >= limit {
		return red(s)
	}
	return s
}

func printProfile(w io.Writer, p models.Profile) {
	plan := string(p.Plano)
	if p.Plano == models.PlanPremium {
		plan = yellow(plan)
	}
	fmt.Fprintf(w, "%s %s\n", bold("@"+p.Apelido), plan)
	if p.Email != "" {
		fmt.Fprintf(w, "  e-mail:        %s\n", p.Email)
	}
	fmt.Fprintf(w, "  mostra apelido: %t\n", p.MostrarApelido)
	fmt.Fprintf(w, "  posts hoje:     %s\n", quotaLine(p.Limites.PostsHoje, p.Limites.LimitePosts))
	fmt.Fprintf(w, "  comentários:    %s\n", quotaLine(p.Limites.ComentariosHoje, p.Limites.LimiteComentarios))
	if p.Plano == models.PlanFree && p.ProximaTrocaApelido.After(time.Now()) {
		fmt.Fprintf(w, "  troca de apelido liberada em %s\n", p.ProximaTrocaApelido.Local().Format("02/01/2006"))
	}
}

func printNotification(w io.Writer, n models.Notification) {
	mark := green("•")
	if n.Lida {
		mark = " "
	}
	fmt.Fprintf(w, "%s %s %s %s", mark, faint(fmt.Sprintf("#%d", n.ID)), n.Mensagem, faint(ago(n.CreatedAt)))
	if n.Link != "" {
		fmt.Fprintf(w, " %s", faint(n.Link))
	}
	fmt.Fprintln(w)
}

// describe renders an error for the terminal, keeping the service message.
func describe(err error) string {
	e, ok := apperr.As(err)
	if !ok {
		return err.Error()
	}
	msg := e.Message
	switch e.Code {
	case apperr.CodeUnauthorized:
		msg = strings.TrimSuffix(msg, ".") + ". Rode `desabafa login`."
	case apperr.CodeQuotaExceeded:
		msg += ". Assine o premium com `desabafa premium`."
	default:
		if apperr.Retryable(e) {
			msg = strings.TrimSuffix(msg, ".") + ". Tente de novo em instantes."
		}
	}
	if e.Field != "" {
		return fmt.Sprintf("%s (%s)", msg, e.Field)
	}
	return msg
}
