// Package wol broadcasts Wake-on-LAN magic packets.
package wol

import (
	"encoding/hex"
	"fmt"
	"net"
	"strings"

	"github.com/wakequeue/wakequeue/internal/core/port"
	"go.uber.org/zap"
)

type sender struct {
	broadcastAddr string
	log           *zap.Logger
}

// NewSender sends magic packets to broadcastAddr, e.g. "255.255.255.255:9".
func NewSender(broadcastAddr string, log *zap.Logger) port.WakeSender {
	return &sender{
		broadcastAddr: broadcastAddr,
		log:           log,
	}
}

// Wake fires a single magic packet at the normalized MAC. Fire-and-forget:
// UDP gives no delivery signal, confirmation comes from presence detection.
func (s *sender) Wake(mac string) error {
	payload, err := magicPacket(mac)
	if err != nil {
		return err
	}

	conn, err := net.Dial("udp", s.broadcastAddr)
	if err != nil {
		return fmt.Errorf("dial broadcast %s: %w", s.broadcastAddr, err)
	}
	defer conn.Close()

	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("send magic packet: %w", err)
	}

	s.log.Info("Magic packet sent", zap.String("mac", mac), zap.String("broadcast", s.broadcastAddr))
	return nil
}

// magicPacket is 6 bytes of 0xFF followed by the MAC repeated 16 times.
func magicPacket(mac string) ([]byte, error) {
	hw, err := hex.DecodeString(strings.ReplaceAll(mac, ":", ""))
	if err != nil || len(hw) != 6 {
		return nil, fmt.Errorf("malformed mac %q", mac)
	}

	packet := make([]byte, 0, 102)
	for i := 0; i < 6; i++ {
		packet = append(packet, 0xFF)
	}
	for i := 0; i < 16; i++ {
		packet = append(packet, hw...)
	}
	return packet, nil
}
