package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildMessageEncodesSubject(t *testing.T) {
	msg := string(buildMessage("shop@example.com", "ana@example.com", "Confirmación de pedido", "Hola\nTotal: $10"))

	assert.Contains(t, msg, "Subject: =?utf-8?q?Confirmaci=C3=B3n_de_pedido?=\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nHola\r\nTotal: $10"))

	for _, line := range strings.Split(msg[:strings.Index(msg, "\r\n\r\n")], "\r\n") {
		for _, r := range line {
			assert.Less(t, r, rune(128), "header %q is not ASCII", line)
		}
	}

	plain := string(buildMessage("shop@example.com", "ana@example.com", "Order received", "x"))
	assert.Contains(t, plain, "Subject: Order received\r\n")
}
