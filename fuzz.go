// +build gofuzz

package classfile

// Fuzz is the go-fuzz entry point: it exercises the bounds-checked parser
// directly against arbitrary, possibly adversarial, input bytes.
func Fuzz(data []byte) int {
	cf, err := NewBytes(data, &Options{})
	if err != nil {
		return 0
	}
	defer cf.Close()

	_ = cf.Name()
	_ = cf.Super()
	_ = cf.Language()
	_ = cf.Version()
	_, _ = RenderJSON(cf)
	return 1
}
