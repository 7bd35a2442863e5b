package web

import (
	"html/template"
	"io"

	"ebilling/internal/billing"
)

type formPage struct {
	Input   billing.DraftInput
	Message string
}

type listRow struct {
	Serial string
	ID     string
	Biller string
	Date   string
}

type listPage struct {
	From      string
	To        string
	Rows      []listRow
	Empty     bool
	EmptyText string
	Notice    string
}

type messagePage struct {
	Title   string
	Message string
	BackURL string
}

var pages = template.Must(template.New("pages").Funcs(template.FuncMap{
	"add1": func(i int) int { return i + 1 },
}).Parse(pagesHTMLTemplate))

func renderPage(w io.Writer, name string, data any) error {
	return pages.ExecuteTemplate(w, name, data)
}

const pagesHTMLTemplate = `
{{define "header"}}<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.}} | e-Billing</title>
<style>
  body { font-family: Arial, Helvetica, sans-serif; margin: 0; color: #222; }
  nav { background: #1f3b57; padding: 10px 20px; }
  nav a { color: #fff; margin-right: 18px; text-decoration: none; font-weight: bold; }
  main { padding: 20px; max-width: 960px; margin: 0 auto; }
  table { border-collapse: collapse; width: 100%; }
  th, td { border: 1px solid #ccc; padding: 6px 8px; text-align: left; }
  th { background: #f0f0f0; }
  .message { background: #fdecea; border: 1px solid #f5c2c0; padding: 8px 12px; margin-bottom: 12px; }
  .empty { color: #666; font-style: italic; }
  .actions a, .actions button { margin-right: 8px; }
  input[type=text] { padding: 4px 6px; }
</style>
</head>
<body>
<nav><a href="/">Home</a><a href="/bills/new">New Bill</a><a href="/bills">All Bills</a></nav>
<main>
{{end}}

{{define "footer"}}</main>
</body>
</html>
{{end}}

{{define "home"}}{{template "header" "Home"}}
<h1>e-Billing</h1>
<ul>
  <li><a id="newBill" href="/bills/new">New Bill</a></li>
  <li><a id="allBills" href="/bills">All Bills</a></li>
</ul>
{{template "footer"}}{{end}}

{{define "form"}}{{template "header" "New Bill"}}
<h1>New Bill</h1>
{{if .Message}}<div class="message" id="formMessage">{{.Message}}</div>{{end}}
<form method="post" action="/bills/new">
  <fieldset>
    <legend>Biller</legend>
    <p><label>Name <input type="text" name="billerName" value="{{.Input.BillerName}}"></label></p>
    <p><label>Contact No. <input type="text" name="billerNumber" value="{{.Input.BillerContact}}"></label></p>
    <p><label>Address <input type="text" name="billToAddress" value="{{.Input.BillerAddress}}"></label></p>
    <p><label>City <input type="text" name="billToCity" value="{{.Input.BillerCity}}"></label></p>
  </fieldset>
  <fieldset>
    <legend>Products</legend>
    <table>
      <thead><tr><th>#</th><th>Name</th><th>Quantity</th><th>Unit</th><th>Price</th><th></th></tr></thead>
      <tbody>
      {{range $i, $item := .Input.Items}}
        <tr class="item">
          <td>{{add1 $i}}</td>
          <td><input type="text" name="itemName" value="{{$item.Name}}"></td>
          <td><input type="text" name="itemQuantity" value="{{$item.Quantity}}"></td>
          <td><input type="text" name="itemUnit" value="{{$item.Unit}}"></td>
          <td><input type="text" name="itemPrice" value="{{$item.Price}}"></td>
          <td>{{if gt (len $.Input.Items) 1}}<button type="submit" name="action" value="remove-{{$i}}">Remove</button>{{end}}</td>
        </tr>
      {{end}}
      </tbody>
    </table>
    <p><button type="submit" name="action" value="add" id="addItem">Add Product</button></p>
  </fieldset>
  <p class="actions">
    <button type="submit" name="action" value="submit" id="submitBill">Create Bill</button>
    <button type="submit" name="action" value="reset" id="resetBill">Clear</button>
  </p>
</form>
{{template "footer"}}{{end}}

{{define "list"}}{{template "header" "All Bills"}}
<h1>All Bills</h1>
{{if .Notice}}<div class="message" id="listNotice">{{.Notice}}</div>{{end}}
<form method="get" action="/bills" class="actions">
  <label>From <input type="date" name="from" value="{{.From}}"></label>
  <label>To <input type="date" name="to" value="{{.To}}"></label>
  <button type="submit">Filter</button>
  <a href="/bills">Clear</a>
  <a id="exportAll" href="/export">Export to Excel</a>
</form>
{{if .Empty}}
<p class="empty" id="emptyList">{{.EmptyText}}</p>
{{else}}
<table id="bills">
  <thead><tr><th>Serial</th><th>Id</th><th>Biller</th><th>Date</th><th>Actions</th></tr></thead>
  <tbody>
  {{range .Rows}}
    <tr>
      <td>{{.Serial}}</td>
      <td>{{.ID}}</td>
      <td>{{.Biller}}</td>
      <td>{{.Date}}</td>
      <td class="actions"><a href="/bills/{{.ID}}">Preview</a><a href="/bills/{{.ID}}/pdf">PDF</a></td>
    </tr>
  {{end}}
  </tbody>
</table>
{{end}}
{{template "footer"}}{{end}}

{{define "message"}}{{template "header" .Title}}
<h1>{{.Title}}</h1>
<div class="message" id="errorMessage">{{.Message}}</div>
{{if .BackURL}}<p><a href="{{.BackURL}}">Back</a></p>{{end}}
{{template "footer"}}{{end}}
`
