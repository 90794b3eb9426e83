package printing

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

// ContractData is the content of a lease contract
type ContractData struct {
	RoomNumber    string
	RoomType      string
	Note          string
	TenantName    string
	LandlordName  string
	LandlordPhone string
	LandlordCode  string
	RentAmount    decimal.Decimal
	Deposit       decimal.Decimal
	StartDate     *time.Time
	EndDate       *time.Time
	TermMonths    int
	PaymentDay    int
	IssuedAt      time.Time
}

// ContractTemplate renders the lease contract document
type ContractTemplate struct {
	tmpl *template.Template
}

// NewContractTemplate parses the embedded contract template
func NewContractTemplate() (*ContractTemplate, error) {
	tmpl, err := template.New("lease_contract.html").
		Funcs(FuncMap()).
		ParseFS(templateFS, "templates/lease_contract.html")
	if err != nil {
		return nil, NewRenderError(ErrCodeTemplate, "failed to parse contract template", err)
	}
	return &ContractTemplate{tmpl: tmpl}, nil
}

// RenderHTML fills the template. Values are escaped by html/template.
func (c *ContractTemplate) RenderHTML(data ContractData) (string, error) {
	if strings.TrimSpace(data.TenantName) == "" {
		return "", NewRenderError(ErrCodeTemplate, "room has no tenant", nil)
	}
	if data.PaymentDay <= 0 {
		data.PaymentDay = 5
	}
	if data.IssuedAt.IsZero() {
		data.IssuedAt = time.Now()
	}
	if data.LandlordName == "" {
		data.LandlordName = data.LandlordCode
	}

	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, data); err != nil {
		return "", NewRenderError(ErrCodeTemplate, "failed to render contract", err)
	}
	return buf.String(), nil
}

// FuncMap returns the helpers available to contract templates
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"formatMoney":    formatMoney,
		"moneyToChinese": moneyToChinese,
		"formatDate":     formatDate,
		"rocDate":        rocDate,
	}
}

// formatMoney: 12500 -> "12,500"; cents only when present
func formatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	intPart, decPart, _ := strings.Cut(d.StringFixed(2), ".")
	var result strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(c)
	}
	if decPart != "00" {
		return sign + result.String() + "." + decPart
	}
	return sign + result.String()
}

var (
	chnNum     = []string{"零", "壹", "貳", "參", "肆", "伍", "陸", "柒", "捌", "玖"}
	chnUnit    = []string{"", "拾", "佰", "仟"}
	chnBigUnit = []string{"", "萬", "億", "兆"}
)

// moneyToChinese writes the integer amount in formal numerals.
// 12500 -> "壹萬貳仟伍佰元整"
func moneyToChinese(d decimal.Decimal) string {
	n := d.Abs().IntPart()
	if n == 0 {
		return "零元整"
	}

	digits := fmt.Sprintf("%d", n)
	length := len(digits)
	var result strings.Builder
	pendingZero := false
	groupHasDigit := false

	for i, c := range digits {
		v := int(c - '0')
		pos := length - i - 1
		unitPos := pos % 4
		bigUnitPos := pos / 4

		if v == 0 {
			pendingZero = true
		} else {
			if pendingZero && result.Len() > 0 {
				result.WriteString(chnNum[0])
			}
			pendingZero = false
			result.WriteString(chnNum[v])
			result.WriteString(chnUnit[unitPos])
			groupHasDigit = true
		}

		if unitPos == 0 {
			if groupHasDigit && bigUnitPos > 0 {
				result.WriteString(chnBigUnit[bigUnitPos])
			}
			groupHasDigit = false
		}
	}

	prefix := ""
	if d.IsNegative() {
		prefix = "負"
	}
	return prefix + result.String() + "元整"
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// rocDate formats a date in the Minguo calendar: 2024-05-01 -> "113 年 05 月 01 日"
func rocDate(t time.Time) string {
	return fmt.Sprintf("%d 年 %02d 月 %02d 日", t.Year()-1911, int(t.Month()), t.Day())
}
