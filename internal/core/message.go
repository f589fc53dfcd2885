package core

import "strconv"

// ReportDateLayout matches the date text registered with the message template.
const ReportDateLayout = "Mon Jan 02 2006"

// TemplateParams renders a summary into the ordered parameter list of the
// daily report template:
//
//	{{1}} date  {{2}} sales  {{3}} expenses  {{4}} net profit  {{5}} sales count
//
// The order is a contract with the provider-side template registration.
func TemplateParams(s DailySummary, currencySymbol string) []string {
	return []string{
		s.ReportDate.Format(ReportDateLayout),
		s.TotalSales.Format(currencySymbol),
		s.TotalExpenses.Format(currencySymbol),
		s.NetProfit.Format(currencySymbol),
		strconv.Itoa(s.SalesCount),
	}
}

// NotifyResult is the outcome of one delivery attempt to the messaging provider.
// MessageID is empty when the provider response carried none.
type NotifyResult struct {
	Success   bool
	MessageID string
	Err       error
}
