package codegen

type inputType int

const (
	inputInt inputType = iota
	inputLong
	inputDouble
	inputBool
)

func (t inputType) keyword() string {
	switch t {
	case inputLong:
		return "long"
	case inputDouble:
		return "double"
	case inputBool:
		return "bool"
	}
	return "int"
}

// Input is one tunable declaration. The source document's input block and
// the parameter file are both rendered from the same []InputGroup, so their
// names, order and values cannot drift apart.
type Input struct {
	Name    string
	Type    inputType
	Value   string
	Comment string
}

type InputGroup struct {
	Title  string
	Inputs []Input
}

func intInput(name string, v int, comment string) Input {
	return Input{Name: name, Type: inputInt, Value: formatInt(v), Comment: comment}
}

func longInput(name string, v int64, comment string) Input {
	return Input{Name: name, Type: inputLong, Value: formatInt64(v), Comment: comment}
}

func doubleInput(name string, v float64, comment string) Input {
	return Input{Name: name, Type: inputDouble, Value: formatDouble(v), Comment: comment}
}

// indicatorInputs declares one input per acquisition parameter.
func indicatorInputs(acqs []*Acquisition) InputGroup {
	g := InputGroup{Title: "Indicator Settings"}
	for _, a := range acqs {
		for _, t := range a.tunables() {
			name := a.InputName(t.suffix)
			comment := a.Label() + " " + t.suffix
			switch t.typ {
			case inputDouble:
				g.Inputs = append(g.Inputs, doubleInput(name, t.fval, comment))
			default:
				g.Inputs = append(g.Inputs, intInput(name, t.ival, comment))
			}
		}
	}
	return g
}

func renderInputBlock(w *codeWriter, groups []InputGroup) {
	first := true
	for _, g := range groups {
		if len(g.Inputs) == 0 {
			continue
		}
		if !first {
			w.line()
		}
		first = false
		w.line("input group ", quoteString(g.Title))
		for _, in := range g.Inputs {
			w.line("input ", in.Type.keyword(), " ", in.Name, " = ", in.Value, ";", " // ", commentText(in.Comment))
		}
	}
}
