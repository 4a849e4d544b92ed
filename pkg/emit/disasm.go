package emit

import (
	"fmt"
	"strings"
)

// Disassemble returns a human-readable listing of the method
func Disassemble(m *Method) string {
	var sb strings.Builder

	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = p.String()
	}
	sb.WriteString(fmt.Sprintf("== %s (%s) -> %s ==\n", m.Name, strings.Join(params, ", "), m.Return))

	for i, t := range m.Locals {
		sb.WriteString(fmt.Sprintf(".local %d %s\n", i, t))
	}

	for offset, ins := range m.Code {
		sb.WriteString(fmt.Sprintf("%04d %s\n", offset, ins))
	}

	return sb.String()
}
