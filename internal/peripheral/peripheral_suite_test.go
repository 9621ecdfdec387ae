package peripheral_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestPeripheral(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Peripheral Suite")
}
