package appointment

// Outcome is the terminal state of one invocation.
type Outcome struct {
	ok  bool
	msg string
	err error
}

func Succeeded(msg string) Outcome { return Outcome{ok: true, msg: msg} }

func Failed(err error) Outcome {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return Outcome{msg: msg, err: err}
}

func (o Outcome) Succeeded() bool { return o.ok }
func (o Outcome) Message() string { return o.msg }
func (o Outcome) Err() error      { return o.err }
