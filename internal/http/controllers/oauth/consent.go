package oauth

import (
	"html/template"
	"net/http"

	"github.com/damont/track/internal/domain/repository"
	svc "github.com/damont/track/internal/http/services/oauth"
)

// consentView alimenta la plantilla del consent.
type consentView struct {
	ClientName string
	Scopes     []repository.Scope
	Query      svc.AuthorizeQuery
	LoggedIn   bool
}

var consentTmpl = template.Must(template.New("consent").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Authorize {{.ClientName}} - Track</title>
<style>
  body { font-family: -apple-system, sans-serif; background: #f4f5f7; margin: 0; }
  .card { max-width: 420px; margin: 8vh auto; background: #fff; border-radius: 8px;
          padding: 32px; box-shadow: 0 1px 4px rgba(0,0,0,.12); }
  h1 { font-size: 1.2rem; margin: 0 0 8px; }
  ul { padding-left: 20px; color: #444; }
  label { display: block; margin: 12px 0 4px; font-size: .9rem; color: #333; }
  input { width: 100%; padding: 8px; border: 1px solid #ccc; border-radius: 4px; box-sizing: border-box; }
  .actions { display: flex; gap: 12px; margin-top: 24px; }
  button { flex: 1; padding: 10px; border: 0; border-radius: 4px; font-size: 1rem; cursor: pointer; }
  .approve { background: #2e6fd8; color: #fff; }
  .deny { background: #e3e5e8; }
</style>
</head>
<body>
<div class="card">
  <h1>{{.ClientName}} wants to access your Track account</h1>
  <p>This application is requesting permission to:</p>
  <ul>
    {{range .Scopes}}<li>{{.Describe}}</li>
    {{end}}
  </ul>
  <form method="post" action="/oauth/authorize">
    <input type="hidden" name="response_type" value="{{.Query.ResponseType}}">
    <input type="hidden" name="client_id" value="{{.Query.ClientID}}">
    <input type="hidden" name="redirect_uri" value="{{.Query.RedirectURI}}">
    <input type="hidden" name="scope" value="{{.Query.Scope}}">
    <input type="hidden" name="state" value="{{.Query.State}}">
    <input type="hidden" name="code_challenge" value="{{.Query.CodeChallenge}}">
    <input type="hidden" name="code_challenge_method" value="{{.Query.CodeChallengeMethod}}">
    {{if not .LoggedIn}}
    <label for="email">Email</label>
    <input id="email" name="email" type="email" autocomplete="username" required>
    <label for="password">Password</label>
    <input id="password" name="password" type="password" autocomplete="current-password" required>
    {{end}}
    <div class="actions">
      <button class="approve" type="submit" name="action" value="approve">Allow</button>
      <button class="deny" type="submit" name="action" value="deny">Deny</button>
    </div>
  </form>
</div>
</body>
</html>
`))

var errorTmpl = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Error - Track</title></head>
<body style="font-family: sans-serif; margin: 10vh auto; max-width: 420px;">
<h1>Authorization error</h1>
<p>{{.}}</p>
</body>
</html>
`))

func renderConsent(w http.ResponseWriter, v consentView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	_ = consentTmpl.Execute(w, v)
}

// renderErrorPage es la respuesta 400 directa: nunca redirige porque el
// redirect URI no está (o no pudo ser) verificado.
func renderErrorPage(w http.ResponseWriter, status int, reason string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = errorTmpl.Execute(w, reason)
}
