package epoll

import (
	"os"

	nested "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
)

// log is the package-level structured logger, configured the same way the
// teacher's fdd.go configures its own: a nested formatter with hidden keys
// and a domain-specific field order, writing to stdout.
var log = logrus.New()

func init() {
	log.SetFormatter(&nested.Formatter{
		HideKeys:    true,
		FieldsOrder: []string{"epoll", "descriptor", "op"},
	})
	log.SetOutput(os.Stdout)
}
