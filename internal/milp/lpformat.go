package milp

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/SebSchroeter/masterthesis/schema"
)

// termsPerLine keeps CPLEX LP lines short; some readers reject very long lines.
const termsPerLine = 8

func varName(j int) string {
	return "x" + strconv.Itoa(j)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteLP writes the problem in CPLEX LP format.
func WriteLP(w io.Writer, p schema.MILPProblem) error {
	bw := bufio.NewWriter(w)

	_, _ = fmt.Fprintln(bw, `\* wvg minimal-sum representation *\`)
	_, _ = fmt.Fprintln(bw, "Minimize")
	writeExpr(bw, " obj:", p.Objective)

	_, _ = fmt.Fprintln(bw, "Subject To")
	for i, r := range p.Rows {
		writeExpr(bw, fmt.Sprintf(" r%d:", i), r.Coeffs)
		_, _ = fmt.Fprintf(bw, "   >= %s\n", formatNumber(r.Lower))
	}

	_, _ = fmt.Fprintln(bw, "Bounds")
	for j := range p.NumVars {
		if math.IsInf(p.Upper[j], 1) {
			_, _ = fmt.Fprintf(bw, " %s >= %s\n", varName(j), formatNumber(p.Lower[j]))
			continue
		}
		_, _ = fmt.Fprintf(bw, " %s <= %s <= %s\n", formatNumber(p.Lower[j]), varName(j), formatNumber(p.Upper[j]))
	}

	var general []string
	for j, isInt := range p.Integer {
		if isInt {
			general = append(general, varName(j))
		}
	}
	if len(general) > 0 {
		_, _ = fmt.Fprintln(bw, "General")
		for start := 0; start < len(general); start += termsPerLine {
			end := min(start+termsPerLine, len(general))
			_, _ = fmt.Fprintf(bw, " %s\n", strings.Join(general[start:end], " "))
		}
	}
	_, _ = fmt.Fprintln(bw, "End")
	return bw.Flush()
}

// writeExpr writes a linear expression; an all-zero expression is written as "0 x0".
func writeExpr(w io.Writer, label string, coeffs []float64) {
	var terms []string
	for j, c := range coeffs {
		if c == 0 {
			continue
		}
		sign := "+"
		if c < 0 {
			sign = "-"
		}
		terms = append(terms, fmt.Sprintf("%s %s %s", sign, formatNumber(math.Abs(c)), varName(j)))
	}
	if len(terms) == 0 {
		terms = append(terms, "0 "+varName(0))
	}
	_, _ = fmt.Fprint(w, label)
	for i, t := range terms {
		if i > 0 && i%termsPerLine == 0 {
			_, _ = fmt.Fprint(w, "\n   ")
		}
		_, _ = fmt.Fprint(w, " ", t)
	}
	_, _ = fmt.Fprintln(w)
}

// ParseSolution reads a GLPK plain-text MIP solution as written by glpsol -w.
// Only the "s mip" status line and the "j" column lines are used.
func ParseSolution(r io.Reader, numVars int) (schema.MILPSolution, error) {
	sol := schema.MILPSolution{X: make([]float64, numVars)}
	seenStatus := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "s":
			// s mip ROWS COLS STATUS OBJ
			if len(fields) < 6 || fields[1] != "mip" {
				return schema.MILPSolution{}, fmt.Errorf("glpsol: unexpected status line %q", scanner.Text())
			}
			status, err := mipStatus(fields[4])
			if err != nil {
				return schema.MILPSolution{}, err
			}
			obj, err := strconv.ParseFloat(fields[5], 64)
			if err != nil {
				return schema.MILPSolution{}, fmt.Errorf("glpsol: bad objective %q: %w", fields[5], err)
			}
			sol.Status, sol.Objective = status, obj
			seenStatus = true
		case "j":
			// j COL VAL
			if len(fields) < 3 {
				return schema.MILPSolution{}, fmt.Errorf("glpsol: unexpected column line %q", scanner.Text())
			}
			col, err := strconv.Atoi(fields[1])
			if err != nil || col < 1 || col > numVars {
				return schema.MILPSolution{}, fmt.Errorf("glpsol: bad column index %q", fields[1])
			}
			val, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return schema.MILPSolution{}, fmt.Errorf("glpsol: bad column value %q: %w", fields[2], err)
			}
			sol.X[col-1] = val
		}
	}
	if err := scanner.Err(); err != nil {
		return schema.MILPSolution{}, fmt.Errorf("glpsol: reading solution: %w", err)
	}
	if !seenStatus {
		return schema.MILPSolution{}, fmt.Errorf("glpsol: solution has no status line")
	}
	if sol.Status != schema.MILPOptimal {
		sol.X = nil
	}
	return sol, nil
}

// mipStatus maps the GLPK status letter; "undefined" is what a hit time limit leaves behind.
func mipStatus(s string) (schema.MILPStatus, error) {
	switch s {
	case "o":
		return schema.MILPOptimal, nil
	case "n":
		return schema.MILPInfeasible, nil
	case "f", "u":
		return schema.MILPTimeout, nil
	default:
		return "", fmt.Errorf("glpsol: unknown MIP status %q", s)
	}
}
