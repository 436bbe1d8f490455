package main

import (
	"bytes"
	"fmt"
	"sort"

	log "github.com/sirupsen/logrus"
)

// lineFormatter prints one line per entry: timestamp, message and, when
// present, the fields in key order.
type lineFormatter struct{}

func (f *lineFormatter) Format(e *log.Entry) ([]byte, error) {
	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := bytes.NewBuffer(make([]byte, 0, 64))
	for i, k := range keys {
		if i > 0 {
			data.WriteByte(' ')
		}
		fmt.Fprintf(data, "%s=%v", k, e.Data[k])
	}

	stamp := e.Time.Format("2006-01-02 15:04:05")
	level := ""
	if e.Level <= log.WarnLevel {
		level = fmt.Sprintf("%s: ", e.Level)
	}

	var msg string
	if data.Len() > 0 {
		msg = fmt.Sprintf("[%s] %s%s (%s)\n", stamp, level, e.Message, data)
	} else {
		msg = fmt.Sprintf("[%s] %s%s\n", stamp, level, e.Message)
	}
	return []byte(msg), nil
}
