package notification

import "html/template"

const layout = `{{define "layout"}}<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#222">
<h2 style="color:#1a73e8">S_Movers</h2>
{{template "content" .}}
<hr>
<table cellpadding="4">
<tr><td><b>Pick up</b></td><td>{{.Booking.PickUp}}</td></tr>
<tr><td><b>Drop</b></td><td>{{.Booking.Drop}}</td></tr>
<tr><td><b>Date</b></td><td>{{.Date}}</td></tr>
<tr><td><b>Start time</b></td><td>{{.Booking.StartTime}}</td></tr>
{{if .Booking.Motive}}<tr><td><b>Motive</b></td><td>{{.Booking.Motive}}</td></tr>{{end}}
</table>
<p style="font-size:12px;color:#888">This is an automated message, please do not reply.</p>
</body></html>{{end}}`

var contents = map[string]string{
	tmplRequest: `{{define "content"}}<p>Hi {{.CounterpartName}},</p>
<p>{{.BookerName}} would like to book you as a {{.Kind}}. Please answer within {{.Window}}, after that the request is cancelled automatically.</p>
<p><a href="{{.AcceptURL}}">Accept</a> &nbsp; | &nbsp; <a href="{{.RejectURL}}">Reject</a></p>{{end}}`,

	tmplAccepted: `{{define "content"}}<p>Hi {{.BookerName}},</p>
<p>Good news: {{.CounterpartName}} accepted your booking as your {{.Kind}}.</p>{{end}}`,

	tmplRejected: `{{define "content"}}<p>Hi {{.BookerName}},</p>
<p>{{.CounterpartName}} is not able to take your booking. Feel free to search for another {{.Kind}}.</p>{{end}}`,

	tmplAutoCancelled: `{{define "content"}}<p>Hi {{.CounterpartName}},</p>
<p>The booking request from {{.BookerName}} was cancelled because it was not answered in time.</p>{{end}}`,

	tmplNoResponse: `{{define "content"}}<p>Hi {{.BookerName}},</p>
<p>{{.CounterpartName}} did not respond to your request, so it has been cancelled. Feel free to search for another {{.Kind}}.</p>{{end}}`,

	tmplCancelled: `{{define "content"}}<p>Hi {{.RecipientName}},</p>
<p>{{.ActorName}} cancelled the following booking.</p>{{end}}`,
}

const (
	tmplRequest       = "request"
	tmplAccepted      = "accepted"
	tmplRejected      = "rejected"
	tmplAutoCancelled = "autoCancelled"
	tmplNoResponse    = "noResponse"
	tmplCancelled     = "cancelled"
)

// parseTemplates compiles one template per message, each sharing the layout.
func parseTemplates() map[string]*template.Template {
	out := make(map[string]*template.Template, len(contents))
	for name, body := range contents {
		out[name] = template.Must(template.Must(template.New(name).Parse(layout)).Parse(body))
	}
	return out
}
