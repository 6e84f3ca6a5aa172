package consolemail

import (
	"fmt"
	"log"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/baitusshuffah20-wq/TPQ-BAITUS-SHUFFAH-sub003/core"
)

// SentMessages collects everything "sent"; tests inspect it.
var (
	sentMu       sync.Mutex
	SentMessages = make([]core.EmailMessage, 0)
)

type service struct {
	defaultFromEmail string
	subjPrefix       string
}

var _ core.EmailService = (*service)(nil)

// NewService returns an EmailService that prints messages to the console.
func NewService(appName, defaultFromEmail string) core.EmailService {
	return &service{
		defaultFromEmail: defaultFromEmail,
		subjPrefix:       "[" + appName + "] ",
	}
}

func (svc service) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if err := msg.Render(); err != nil {
			log.Printf("rendering email: %v", err)
			continue
		}
		if msg.HasRecipients() && (msg.HasContent() || msg.HasAttachments()) {
			svc.send(*msg)
			sentMu.Lock()
			SentMessages = append(SentMessages, *msg)
			sentMu.Unlock()
		}
	}
}

func (svc service) send(msg core.EmailMessage) {
	body := &strings.Builder{}
	_, _ = fmt.Fprintf(body, "From: %s\r\n", svc.defaultFromEmail)
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", svc.subjPrefix+msg.Subject)
	_, _ = fmt.Fprintf(body, "To: %s\r\n", svc.joinAddresses(msg.To))
	_, _ = fmt.Fprintf(body, "\r\n%s\r\n", msg.TextContent)
	log.Print(body.String())
}

func (svc service) joinAddresses(addrs []mail.Address) string {
	strs := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		strs = append(strs, addr.String())
	}
	return strings.Join(strs, ", ")
}
