package preview

import (
	"bytes"
	"html/template"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Media selects the rendered variant.
type Media int

const (
	// MediaScreen includes the back and print controls.
	MediaScreen Media = iota
	// MediaPrint renders the invoice body only.
	MediaPrint
)

// Options are per-render settings.
type Options struct {
	Media Media

	// BackURL is where the back control leads. Empty uses history.back().
	BackURL string

	// PDFURL, when set, adds a download control next to print.
	PDFURL string

	// ScrollToTop scrolls the page to the top once loaded.
	ScrollToTop bool
}

// Renderer writes models as standalone HTML pages.
type Renderer struct {
	tpl            *template.Template
	currencySymbol string
}

// NewRenderer returns a renderer printing amounts with the given currency symbol.
func NewRenderer(currencySymbol string) *Renderer {
	funcs := template.FuncMap{
		"money":      Money,
		"capitalize": Capitalize,
		"qty":        formatQuantity,
		"add1":       func(i int) int { return i + 1 },
	}
	return &Renderer{
		tpl:            template.Must(template.New("invoice").Funcs(funcs).Parse(invoiceHTMLTemplate)),
		currencySymbol: currencySymbol,
	}
}

type renderInput struct {
	Model
	Options
	Currency string
	Controls bool
}

// Render writes the page for m.
func (r *Renderer) Render(w io.Writer, m Model, opts Options) error {
	return r.tpl.Execute(w, renderInput{
		Model:    m,
		Options:  opts,
		Currency: r.currencySymbol,
		Controls: opts.Media == MediaScreen,
	})
}

// RenderString is Render into a string.
func (r *Renderer) RenderString(m Model, opts Options) (string, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, m, opts); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Money formats an amount with exactly two decimals.
func Money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// Capitalize upper-cases the first rune of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func formatQuantity(d decimal.Decimal) string {
	return d.String()
}

// JoinLines is used by document renderers that print address blocks on one line.
func JoinLines(lines []string) string {
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, ", ")
}

const invoiceHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Invoice {{.InvoiceNo}}</title>
  <style>
    body { font-family: Arial, sans-serif; font-size: 14px; margin: 0; padding: 20px; }
    .controls { margin-bottom: 10px; }
    .controls a, .controls button {
      display: inline-block; margin-right: 10px; padding: 8px 16px;
      border: 1px solid #dc2626; border-radius: 12px; background: #fff;
      color: #dc2626; font-weight: 600; text-decoration: none; cursor: pointer;
    }
    .invoice-box { padding: 20mm 10mm; border: 1px solid #000; background: #fff; box-sizing: border-box; }
    table { width: 100%; border-collapse: collapse; }
    .border { border: 1px solid #000; }
    .center { text-align: center; }
    .right { text-align: right; }
    .products-table { border: 1.5px solid #000; table-layout: fixed; }
    .products-table th { border: 1px solid #000; padding: 12px 8px; text-align: left; background: #f6f6f6; }
    .products-table td { border-left: 1px solid #000; border-right: 1px solid #000; padding: 12px 8px; text-align: left; }
    .products-table tr td:first-child, .products-table tr th:first-child { border-left: none; }
    .products-table tr td:last-child, .products-table tr th:last-child { border-right: none; }
    @media print {
      html, body { width: 210mm; height: 297mm; margin: 0 !important; padding: 0 !important; }
      .no-print { display: none !important; }
      .invoice-box { max-height: 270mm; overflow: hidden !important; page-break-inside: avoid !important; }
    }
  </style>
</head>
<body>
{{- if .Controls}}
  <div class="controls no-print">
    {{- if .BackURL}}
    <a id="goBack" href="{{.BackURL}}">Back</a>
    {{- else}}
    <button id="goBack" type="button" onclick="history.back()">Back</button>
    {{- end}}
    <button id="print" type="button" onclick="window.print()">Print Bill</button>
    {{- if .PDFURL}}
    <a id="downloadPdf" href="{{.PDFURL}}">Download PDF</a>
    {{- end}}
  </div>
{{- end}}
  <div class="invoice-box">
    <table>
      <tbody class="border">
        <tr class="border">
          <td colspan="3" class="center">
            <strong>INVOICE</strong><br />
            {{- if .Issuer.Name}}
            <strong>{{.Issuer.Name}}</strong><br />
            {{- end}}
            {{- range .Issuer.AddressLines}}
            {{.}}<br />
            {{- end}}
          </td>
        </tr>
        <tr>
          <td class="border"><strong>Invoice No.:</strong><br />{{.InvoiceNo}}</td>
          <td class="border"><strong>Date:</strong><br />{{.Date}}</td>
        </tr>
        <tr>
          <td class="border">
            <strong>Billed to</strong><br />
            {{.BillTo}}<br />
            {{- if .BillToAddress}}{{.BillToAddress}}<br />{{end}}
            {{- if .BillToCity}}{{.BillToCity}}<br />{{end}}
            {{- if .ContactNo}}Contact No.: {{.ContactNo}}{{end}}
          </td>
          <td>
            <strong>Shipped to</strong><br />
            {{.BillTo}}<br />
            {{- if .BillToAddress}}{{.BillToAddress}}<br />{{end}}
            {{- if .BillToCity}}{{.BillToCity}}{{end}}
          </td>
        </tr>
      </tbody>
    </table>
    <br />
    <table class="products-table">
      <thead>
        <tr>
          <th style="width: 8%">Sl. No.</th>
          <th style="width: 48%">Description of Goods</th>
          <th style="width: 14%">Qty.</th>
          <th style="width: 15%">Price</th>
          <th style="width: 15%">Amount ({{.Currency}})</th>
        </tr>
      </thead>
      <tbody>
        {{- range .Rows}}
        {{- if .Blank}}
        <tr class="blank-row"><td>&nbsp;</td><td></td><td></td><td></td><td></td></tr>
        {{- else}}
        <tr class="item-row">
          <td>{{.SlNo}}</td>
          <td>{{.Name}}</td>
          <td>{{qty .Quantity}} {{.Unit}}</td>
          <td>{{money .Price}}</td>
          <td>{{money .Amount}}</td>
        </tr>
        {{- end}}
        {{- end}}
      </tbody>
    </table>
    <br />
    <table class="border">
      <tbody>
        <tr>
          <td colspan="4" class="right border"><strong>Grand Total :</strong></td>
          <td><strong id="grandTotal">{{.Currency}} {{money .TotalAmount}}</strong></td>
        </tr>
        {{- if .ShowBalances}}
        <tr><td colspan="4" class="right border">Sub Total :</td><td id="subTotal">{{money .SubTotal}}</td></tr>
        <tr><td colspan="4" class="right border">Received :</td><td id="received">{{money .Received}}</td></tr>
        <tr><td colspan="4" class="right border">Balance :</td><td id="balance">{{money .Balance}}</td></tr>
        <tr><td colspan="4" class="right border">Current Balance :</td><td id="currentBalance">{{money .CurrentBalance}}</td></tr>
        {{- end}}
      </tbody>
    </table>
    <br />
    <p><strong id="amountInWords">{{capitalize .AmountInWords}}</strong></p>
    <br />
    <table class="border">
      <tbody>
        <tr>
          <td class="border">
            <strong>Terms &amp; Conditions</strong><br />
            {{- range $i, $term := .Issuer.Terms}}
            {{add1 $i}}. {{$term}}<br />
            {{- end}}
          </td>
          <td class="center border"><br /><br /><br />Receiver's Signature</td>
          <td class="center"><br /><br /><br />Authorised Signatory</td>
        </tr>
      </tbody>
    </table>
  </div>
{{- if and .Controls .ScrollToTop}}
  <script>window.scrollTo({ top: 0, behavior: "smooth" });</script>
{{- end}}
</body>
</html>
`
