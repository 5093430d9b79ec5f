package codegen

// parameters renders the terminal's .set file. It walks the same input groups
// as the source's input block, so each KEY=value line matches one input
// declaration in name, order and default.
func (d *document) parameters() string {
	w := &codeWriter{}
	w.line(";")
	w.line("; MT5 Parameter File for: ", commentText(d.strategy.Name))
	w.line("; ", generatorName, " (", commentText(d.preset.FirmName), ")")
	w.line("; ", TimestampLabel, d.stamp)
	w.line(";")
	for _, g := range d.groups {
		if len(g.Inputs) == 0 {
			continue
		}
		w.line()
		w.line(";--- ", g.Title, " ---")
		for _, in := range g.Inputs {
			w.line(in.Name, "=", in.Value)
		}
	}
	return w.String()
}
