package models

// Plan is the subscription tier stored on the profile.
type Plan string

const (
	PlanFree    Plan = "gratuito"
	PlanPremium Plan = "premium"
)

// QuotaKind names a daily-limited action.
type QuotaKind string

const (
	QuotaPost    QuotaKind = "post"
	QuotaComment QuotaKind = "comentario"
)

// Unlimited is the ceiling value for plans without a daily limit.
const Unlimited = -1

const (
	FreePostsPerDay    = 1
	FreeCommentsPerDay = 3
)

// Ceiling returns the daily limit for kind. Unknown plans are treated as free.
func (p Plan) Ceiling(kind QuotaKind) int {
	if p == PlanPremium {
		return Unlimited
	}
	switch kind {
	case QuotaPost:
		return FreePostsPerDay
	case QuotaComment:
		return FreeCommentsPerDay
	}
	return 0
}

func (p Plan) Valid() bool {
	return p == PlanFree || p == PlanPremium
}

// Allows reports whether one more action fits under ceiling.
func Allows(ceiling, used int) bool {
	return ceiling == Unlimited || used < ceiling
}

// Limits is the quota block carried on the own-profile response.
type Limits struct {
	PostsHoje         int `json:"posts_hoje"`
	ComentariosHoje   int `json:"comentarios_hoje"`
	LimitePosts       int `json:"limite_posts"`
	LimiteComentarios int `json:"limite_comentarios"`
}

func LimitsFor(plan Plan, posts, comments int) Limits {
	return Limits{
		PostsHoje:         posts,
		ComentariosHoje:   comments,
		LimitePosts:       plan.Ceiling(QuotaPost),
		LimiteComentarios: plan.Ceiling(QuotaComment),
	}
}
