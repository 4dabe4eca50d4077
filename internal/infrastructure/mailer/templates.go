package mailer

import (
	"html/template"

	"github.com/shopspring/decimal"
)

var funcs = template.FuncMap{
	"money": func(v decimal.Decimal) string { return "$" + v.StringFixed(2) },
}

var firstPurchaseTmpl = template.Must(template.New("first_purchase").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<body>
  <h2>Hola {{.Admin.Name}},</h2>
  {{if .IsCreator}}
  <p>Tu producto <strong>{{.Product.Name}}</strong> acaba de recibir su primera compra.</p>
  {{else}}
  <p>El producto <strong>{{.Product.Name}}</strong> acaba de recibir su primera compra.</p>
  {{end}}
  <table>
    <tr><td>Cliente</td><td>{{.Customer.Name}} ({{.Customer.Email}})</td></tr>
    <tr><td>Cantidad</td><td>{{.Purchase.Quantity}}</td></tr>
    <tr><td>Total</td><td>{{money .Purchase.TotalPrice}}</td></tr>
    <tr><td>Fecha</td><td>{{.Purchase.PurchasedAt.Format "02/01/2006 15:04"}}</td></tr>
  </table>
</body>
</html>`))

var dailyReportTmpl = template.Must(template.New("daily_report").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<body>
  <h2>Reporte diario de compras - {{.Report.Date.Format "02/01/2006"}}</h2>
  <p>Hola {{.Admin.Name}},</p>
  <p>Total de compras: <strong>{{.Report.TotalPurchases}}</strong><br>
     Ingresos totales: <strong>{{money .Report.TotalRevenue}}</strong><br>
     Clientes únicos: {{.Report.Summary.UniqueCustomers}}<br>
     Productos únicos: {{.Report.Summary.UniqueProducts}}</p>

  <h3>Productos</h3>
  <table>
    <tr><th>Producto</th><th>Cantidad</th><th>Ingresos</th></tr>
    {{range .Report.ProductsSummary}}
    <tr><td>{{.ProductName}}</td><td>{{.QuantitySold}}</td><td>{{money .TotalRevenue}}</td></tr>
    {{end}}
  </table>

  <h3>Categorías</h3>
  <table>
    <tr><th>Categoría</th><th>Cantidad</th><th>Ingresos</th></tr>
    {{range .Report.CategoriesPerformance}}
    <tr><td>{{.CategoryName}}</td><td>{{.QuantitySold}}</td><td>{{money .TotalRevenue}}</td></tr>
    {{end}}
  </table>

  <h3>Administradores</h3>
  <table>
    <tr><th>Administrador</th><th>Cantidad</th><th>Ingresos</th></tr>
    {{range .Report.AdministratorsPerformance}}
    <tr><td>{{.AdminName}}</td><td>{{.QuantitySold}}</td><td>{{money .TotalRevenue}}</td></tr>
    {{end}}
  </table>

  <h3>Mejores clientes</h3>
  <table>
    <tr><th>Cliente</th><th>Compras</th><th>Gastado</th></tr>
    {{range .Report.TopCustomers}}
    <tr><td>{{.CustomerName}} ({{.CustomerEmail}})</td><td>{{.PurchaseCount}}</td><td>{{money .TotalSpent}}</td></tr>
    {{end}}
  </table>
</body>
</html>`))
