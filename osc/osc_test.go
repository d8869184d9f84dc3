package osc

// testCase pairs a packet with its wire encoding.
type testCase struct {
	name    string
	obj     Packet
	raw     []byte
	wantErr bool
}

func join(parts ...string) []byte {
	var b []byte
	for _, p := range parts {
		b = append(b, p...)
	}
	return b
}

var messageTestCases = []testCase{
	{"no_arguments", NewMessage("/a"), join("/a\x00\x00", ",\x00\x00\x00"), false},
	{"int32", NewMessage("/a", int32(1)), join("/a\x00\x00", ",i\x00\x00", "\x00\x00\x00\x01"), false},
	{"float32", NewMessage("/track/0/volume", float32(0.5)), join("/track/0/volume\x00", ",f\x00\x00", "\x3f\x00\x00\x00"), false},
	{"string", NewMessage("/track/0/name", "Drums"), join("/track/0/name\x00\x00\x00", ",s\x00\x00", "Drums\x00\x00\x00"), false},
	{"bools_and_nil", NewMessage("/a", true, false, nil), join("/a\x00\x00", ",TFN\x00\x00\x00\x00"), false},
	{"blob", NewMessage("/a", []byte{1, 2, 3}), join("/a\x00\x00", ",b\x00\x00", "\x00\x00\x00\x03\x01\x02\x03\x00"), false},
	{"int64", NewMessage("/a", int64(-1)), join("/a\x00\x00", ",h\x00\x00", "\xff\xff\xff\xff\xff\xff\xff\xff"), false},
	{"float64", NewMessage("/a", float64(1)), join("/a\x00\x00", ",d\x00\x00", "\x3f\xf0\x00\x00\x00\x00\x00\x00"), false},
	{"timetag", NewMessage("/a", NewImmediateTimetag()), join("/a\x00\x00", ",t\x00\x00", "\x00\x00\x00\x00\x00\x00\x00\x01"), false},
	{"action", NewMessage("/action", int32(40001)), join("/action\x00", ",i\x00\x00", "\x00\x00\x9c\x41"), false},
}

var bundleTestCases = []testCase{
	{"empty_bundle", NewBundle(), join("#bundle\x00", "\x00\x00\x00\x00\x00\x00\x00\x01"), false},
	{"one_message", NewBundle(NewMessage("/a", int32(1))), join(
		"#bundle\x00", "\x00\x00\x00\x00\x00\x00\x00\x01",
		"\x00\x00\x00\x0c", "/a\x00\x00", ",i\x00\x00", "\x00\x00\x00\x01",
	), false},
	{"nested", NewBundle(NewMessage("/a"), NewBundle()), join(
		"#bundle\x00", "\x00\x00\x00\x00\x00\x00\x00\x01",
		"\x00\x00\x00\x08", "/a\x00\x00", ",\x00\x00\x00",
		"\x00\x00\x00\x10", "#bundle\x00", "\x00\x00\x00\x00\x00\x00\x00\x01",
	), false},
}
