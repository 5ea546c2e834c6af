package shell

import (
	"fmt"
	"io"

	"github.com/atinyakov/oauth2profile/internal/client/api"
	"github.com/atinyakov/oauth2profile/internal/models"
)

var providerLabels = map[api.Provider]string{
	api.ProviderGoogle: "Google",
	api.ProviderGitHub: "GitHub",
}

func renderLanding(w io.Writer, links LinkBuilder) {
	fmt.Fprintln(w, "Welcome")
	for _, p := range api.Providers {
		fmt.Fprintf(w, "  Login with %s: %s\n", providerLabels[p], links.LoginURL(p))
	}
	fmt.Fprintln(w, `Open a link in your browser, then run "session" to use the session here.`)
}

func renderUnauthenticated(w io.Writer) {
	fmt.Fprintf(w, "Not logged in. Go Home: %s\n", HomeRoute)
}

func renderProfile(w io.Writer, u models.User, saving bool) {
	fmt.Fprintln(w, "User Profile")
	fmt.Fprintf(w, "  Email:        %s\n", u.Email)
	fmt.Fprintf(w, "  Display Name: %s\n", u.DisplayName)
	fmt.Fprintf(w, "  Bio:          %s\n", u.Bio)
	if u.AvatarURL != "" {
		fmt.Fprintf(w, "  Avatar:       %s\n", u.AvatarURL)
	}
	if saving {
		fmt.Fprintln(w, "  [Saving...]")
	} else {
		fmt.Fprintln(w, "  [Update]")
	}
}
