package status

import (
	"bytes"
	"html/template"

	"tailscale-webui/internal/tailscale"
)

// MachinesURL is the admin console page a logged-in user is linked to.
const MachinesURL = "https://login.tailscale.com/admin/machines"

// View is the markup for the status and login blocks.
type View struct {
	StatusHTML template.HTML `json:"statusHtml"`
	LoginHTML  template.HTML `json:"loginHtml"`
	// Logout is true when the logout control is part of LoginHTML.
	Logout bool `json:"logout"`
}

var fragments = template.Must(template.New("status").Parse(`
{{- define "running" -}}
<em><span style="color:green"><strong>Tailscale RUNNING</strong></span></em>
{{- end -}}
{{- define "stopped" -}}
<em><span style="color:red"><strong>Tailscale NOT RUNNING</strong></span></em>
{{- end -}}
{{- define "needsLogin" -}}
<a href="{{.}}" target="_blank">Needs Login</a>
{{- end -}}
{{- define "loggedIn" -}}
<a href="{{.URL}}" target="_blank">{{.Name}}</a><br><a style="color:green" id="logout_button">Logout and Unbind</a>
{{- end -}}
{{- define "neutral" -}}
<span style="color:orange">NOT RUNNING</span>
{{- end -}}
`))

// Render produces the markup for a snapshot. It is a pure function of its
// inputs. The status and login blocks are rendered independently.
func Render(running bool, login tailscale.LoginState) View {
	var v View
	if running {
		v.StatusHTML = execute("running", nil)
	} else {
		v.StatusHTML = execute("stopped", nil)
	}
	switch login.Kind() {
	case tailscale.LoginNeedsLogin:
		url, _ := login.AuthURL()
		v.LoginHTML = execute("needsLogin", url)
	case tailscale.LoginRunning:
		name, _ := login.DisplayName()
		v.LoginHTML = execute("loggedIn", struct{ URL, Name string }{MachinesURL, name})
		v.Logout = true
	default:
		v.LoginHTML = execute("neutral", nil)
	}
	return v
}

func execute(name string, data any) template.HTML {
	var buf bytes.Buffer
	if err := fragments.ExecuteTemplate(&buf, name, data); err != nil {
		return ""
	}
	return template.HTML(buf.String())
}

// Tone is the colour class of a label.
type Tone string

const (
	ToneGood    Tone = "green"
	ToneBad     Tone = "red"
	ToneNeutral Tone = "orange"
)

// Label is a plain-text rendering used by the CLI.
type Label struct {
	Text string
	Tone Tone
	// Link is the URL the web view would link to, if any.
	Link string
}

// Labels returns the service and login labels for a snapshot, mirroring
// Render without markup.
func Labels(running bool, login tailscale.LoginState) (Label, Label) {
	svc := Label{Text: "Tailscale NOT RUNNING", Tone: ToneBad}
	if running {
		svc = Label{Text: "Tailscale RUNNING", Tone: ToneGood}
	}
	switch login.Kind() {
	case tailscale.LoginNeedsLogin:
		url, _ := login.AuthURL()
		return svc, Label{Text: "Needs Login", Tone: ToneNeutral, Link: url}
	case tailscale.LoginRunning:
		name, _ := login.DisplayName()
		return svc, Label{Text: name, Tone: ToneGood, Link: MachinesURL}
	default:
		return svc, Label{Text: "NOT RUNNING", Tone: ToneNeutral}
	}
}
