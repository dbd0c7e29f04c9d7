package handlers

import "net/http"

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users         UserStore
	Credentials   PasswordHasher
	Tokens        TokenService
	Gate          Authenticator
	Subscriptions SubscriptionStore
	SubToggler    EdgeToggler
	Likes         LikeStore
	LikeToggler   EdgeToggler
	Media         MediaStore
	LoginLimiter  RateLimiter
	Cookies       CookiePolicy

	AllowSelfSubscribe bool
}

// RegisterRoutes wires HTTP handlers into the provided ServeMux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	health := HealthHandler{}
	authn := AuthHandler{
		Users:       deps.Users,
		Credentials: deps.Credentials,
		Tokens:      deps.Tokens,
		Media:       deps.Media,
		Limiter:     deps.LoginLimiter,
		Cookies:     deps.Cookies,
	}
	users := UserHandler{Users: deps.Users, Media: deps.Media}
	subscriptions := SubscriptionHandler{
		Toggles:            deps.SubToggler,
		Subscriptions:      deps.Subscriptions,
		AllowSelfSubscribe: deps.AllowSelfSubscribe,
	}
	likes := LikeHandler{Toggles: deps.LikeToggler, Likes: deps.Likes}

	mux.HandleFunc("/healthz", health.Handle)
	mux.HandleFunc("/api/v1/auth/register", authn.Register)
	mux.HandleFunc("/api/v1/auth/login", authn.Login)
	mux.HandleFunc("/api/v1/auth/refresh", authn.Refresh)
	mux.HandleFunc("/api/v1/auth/logout", RequireAuth(deps.Gate, authn.Logout))
	mux.HandleFunc("/api/v1/auth/password", RequireAuth(deps.Gate, authn.ChangePassword))
	mux.HandleFunc("/api/v1/users/me", RequireAuth(deps.Gate, users.Me))
	mux.HandleFunc("/api/v1/users/me/avatar", RequireAuth(deps.Gate, users.UpdateAvatar))
	mux.HandleFunc("/api/v1/users/me/cover", RequireAuth(deps.Gate, users.UpdateCover))
	mux.HandleFunc("/api/v1/subscriptions/toggle", RequireAuth(deps.Gate, subscriptions.Toggle))
	mux.HandleFunc("/api/v1/subscriptions/channel", subscriptions.ChannelCount)
	mux.HandleFunc("/api/v1/subscriptions/mine", RequireAuth(deps.Gate, subscriptions.Mine))
	mux.HandleFunc("/api/v1/likes/toggle", RequireAuth(deps.Gate, likes.Toggle))
	mux.HandleFunc("/api/v1/likes/mine", RequireAuth(deps.Gate, likes.Mine))
}
