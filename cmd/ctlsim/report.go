package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/showcontroller/ctlsim/cc"
	"github.com/showcontroller/ctlsim/osc"
)

var (
	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))
	addrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))
	bytesStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

// console prints one line per packet sent.
type console struct {
	w io.Writer
}

// Sent implements producer.Reporter.
func (c console) Sent(seq int, p osc.Packet) {
	switch t := p.(type) {
	case *osc.Message:
		fmt.Fprintf(c.w, "%s %s\n", labelStyle.Render(fmt.Sprintf("sent OSC message %d", seq)), addrStyle.Render(t.String()))
	case *osc.Bundle:
		fmt.Fprintf(c.w, "%s %s\n", labelStyle.Render("sent OSC bundle"), dimStyle.Render(fmt.Sprintf("(%d elements)", len(t.Elements))))
		c.bundle(t, "  ")
	}
}

func (c console) bundle(b *osc.Bundle, indent string) {
	for _, e := range b.Elements {
		switch t := e.(type) {
		case *osc.Message:
			fmt.Fprintf(c.w, "%s%s\n", indent, addrStyle.Render(t.String()))
		case *osc.Bundle:
			fmt.Fprintf(c.w, "%s%s\n", indent, dimStyle.Render("#bundle"))
			c.bundle(t, indent+"  ")
		}
	}
}

// ccConsole prints control-change packets the way the simulator always has.
type ccConsole struct {
	w io.Writer
}

// Sent implements cc.Reporter.
func (c ccConsole) Sent(p cc.Packet) {
	fmt.Fprintf(c.w, "%s %s\n", labelStyle.Render("sending:"), bytesStyle.Render(p.String()))
}
