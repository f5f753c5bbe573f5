// Package quill is the convenience facade over the quill scripting platform:
// source in, loaded assembly out.
//
// A Compiler collects module references and one source origin — literal text,
// a readable stream, or a pre-built syntax tree — and on Compile invokes the
// platform pipeline (scan, parse, compile, emit, load). Diagnostics from the
// most recent compile are re-exposed as-is; a compile with no error-severity
// diagnostics additionally yields a loaded Assembly whose exported class
// types can be instantiated and invoked:
//
//	c := quill.New("demo")
//	if err := c.AddReferenceName("math"); err != nil {
//		// unresolvable reference: fail fast
//	}
//	c.SetSource(src)
//	if err := c.Compile(false); err != nil {
//		// configuration problem (e.g. no source set)
//	}
//	if c.HasErrors() {
//		for _, msg := range c.Errors() {
//			fmt.Println(msg) // "line(col): message"
//		}
//		return
//	}
//	joe := c.Assembly().Type("Fred.Joe").New()
//	n, err := joe.Invoke("GetNextInt")
//
// Syntax and semantic errors never fail the Compile call itself: they are
// expected, recoverable, and inspectable in bulk through Diagnostics and
// Errors. Only configuration mistakes (an unresolvable reference name, a
// missing source origin, an unreadable stream) surface as Go errors.
package quill
