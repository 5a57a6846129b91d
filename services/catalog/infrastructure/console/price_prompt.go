// Package console asks a human operator to confirm price drops.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ghuser/storefront/services/catalog/domain/models"
)

// PricePrompt implements models.PriceDecider by writing a question to out and
// reading one answer line from in. Only "y" and "yes" confirm; anything else,
// including EOF, declines.
type PricePrompt struct {
	in  *bufio.Reader
	out io.Writer
}

var _ models.PriceDecider = (*PricePrompt)(nil)

func NewPricePrompt(in io.Reader, out io.Writer) *PricePrompt {
	return &PricePrompt{in: bufio.NewReader(in), out: out}
}

func (p *PricePrompt) ConfirmPriceDrop(item string, from, to decimal.Decimal) bool {
	fmt.Fprintf(p.out, "Lower the price of %s from %s to %s %s? (y/n): ", item, from, to, models.Currency)

	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(p.out)
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
