package testutil

import (
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Credentials accepted by the fixture site.
const (
	SiteUsername = "tomsmith"
	SitePassword = "SuperSecretPassword!"
)

// Flash messages rendered by the fixture site.
const (
	FlashInvalidUsername = "Your username is invalid!"
	FlashInvalidPassword = "Your password is invalid!"
	FlashLoggedIn        = "You logged into a secure area!"
	FlashLoggedOut       = "You logged out of the secure area!"
	FlashLoginRequired   = "You must login to view the secure area!"
)

const (
	sessionCookie = "rack.session"
	flashCookie   = "flash"
)

// Site is a local replica of the demo Form Authentication site.
type Site struct {
	Server *httptest.Server
	URL    string
}

// NewSite starts the fixture site. It is stopped when the test ends.
func NewSite(t testing.TB) *Site {
	t.Helper()
	srv := httptest.NewServer(SiteHandler())
	t.Cleanup(srv.Close)
	return &Site{Server: srv, URL: srv.URL}
}

// SiteHandler returns the router serving the fixture pages.
func SiteHandler() http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		render(w, req, "index")
	})
	r.Get("/login", func(w http.ResponseWriter, req *http.Request) {
		render(w, req, "login")
	})
	r.Post("/authenticate", func(w http.ResponseWriter, req *http.Request) {
		if err := req.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		switch {
		case req.PostForm.Get("username") != SiteUsername:
			redirectWithFlash(w, req, "/login", "error", FlashInvalidUsername)
		case req.PostForm.Get("password") != SitePassword:
			redirectWithFlash(w, req, "/login", "error", FlashInvalidPassword)
		default:
			http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "authenticated", Path: "/"})
			redirectWithFlash(w, req, "/secure", "success", FlashLoggedIn)
		}
	})
	r.Get("/secure", func(w http.ResponseWriter, req *http.Request) {
		if c, err := req.Cookie(sessionCookie); err != nil || c.Value != "authenticated" {
			redirectWithFlash(w, req, "/login", "error", FlashLoginRequired)
			return
		}
		render(w, req, "secure")
	})
	r.Get("/logout", func(w http.ResponseWriter, req *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
		redirectWithFlash(w, req, "/login", "success", FlashLoggedOut)
	})
	return r
}

type flash struct {
	Kind    string
	Message string
}

type pageData struct {
	Flash *flash
}

func redirectWithFlash(w http.ResponseWriter, req *http.Request, to, kind, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:  flashCookie,
		Value: url.QueryEscape(kind + "|" + msg),
		Path:  "/",
	})
	http.Redirect(w, req, to, http.StatusFound)
}

// popFlash reads the pending flash message and clears it.
func popFlash(w http.ResponseWriter, req *http.Request) *flash {
	c, err := req.Cookie(flashCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Value: "", Path: "/", MaxAge: -1})
	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return nil
	}
	kind, msg, ok := strings.Cut(raw, "|")
	if !ok {
		return nil
	}
	return &flash{Kind: kind, Message: msg}
}

func render(w http.ResponseWriter, req *http.Request, name string) {
	data := pageData{Flash: popFlash(w, req)}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

var pages = template.Must(template.New("site").Parse(`
{{define "head"}}<!DOCTYPE html>
<html class="no-js" lang="en">
<head>
  <meta charset="utf-8">
  <title>The Internet</title>
</head>
<body>
  <div class="row">
    <div id="flash-messages" class="large-12 columns">
      {{if .Flash}}<div data-alert id="flash" class="flash {{.Flash.Kind}}">
        {{.Flash.Message}}
        <a href="#" class="close">×</a>
      </div>{{end}}
    </div>
  </div>
  <div class="row">
    <div id="content" class="large-12 columns">
{{end}}

{{define "foot"}}
    </div>
  </div>
  <div id="page-footer" class="row">
    <div class="large-4 large-centered columns">
      <hr>
      <div style="text-align: center;">Powered by <a target="_blank" href="http://elementalselenium.com/">Elemental Selenium</a></div>
    </div>
  </div>
  <script>
    document.addEventListener("click", function (e) {
      if (e.target.matches(".flash > .close")) {
        e.preventDefault();
        e.target.parentNode.style.display = "none";
      }
    });
  </script>
</body>
</html>
{{end}}

{{define "index"}}{{template "head" .}}
      <h1 class="heading">Welcome to the-internet</h1>
      <h2>Available Examples</h2>
      <ul>
        <li><a href="/checkboxes">Checkboxes</a></li>
        <li><a href="/login">Form Authentication</a></li>
      </ul>
{{template "foot" .}}{{end}}

{{define "login"}}{{template "head" .}}
      <div class="example">
        <h2>Login Page</h2>
        <h4 class="subheader">This is where you can log into the secure area.</h4>
        <p class="hidden-note" style="display: none">Use tomsmith / SuperSecretPassword!</p>
        <form name="login" method="post" action="/authenticate" id="login">
          <div class="row">
            <div class="large-6 small-12 columns">
              <label for="username">Username</label>
              <input type="text" name="username" id="username">
            </div>
          </div>
          <div class="row">
            <div class="large-6 small-12 columns">
              <label for="password">Password</label>
              <input type="password" name="password" id="password">
            </div>
          </div>
          <input type="hidden" name="source" value="fixture">
          <button class="radius" type="submit"><i class="fa fa-2x fa-sign-in"> Login</i></button>
        </form>
      </div>
{{template "foot" .}}{{end}}

{{define "secure"}}{{template "head" .}}
      <div class="example">
        <h2><i class="icon-lock"></i> Secure Area</h2>
        <h4 class="subheader">Welcome to the Secure Area. When you are done click logout below.</h4>
        <a class="button secondary radius" href="/logout"><i class="icon-2x icon-signout"> Logout</i></a>
      </div>
{{template "foot" .}}{{end}}
`))
