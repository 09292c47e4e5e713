package handler

import (
	"bytes"
	"net"
	"strconv"

	"oceanguard/internal/config"
	"oceanguard/internal/logger"
)

var (
	jpegHeader = []byte{0xFF, 0xD8}
	jpegFooter = []byte{0xFF, 0xD9}
)

// CameraSink receives complete frames streamed by cameras.
type CameraSink interface {
	HandleCameraImage(image []byte, camera string)
}

// frameAssembler rebuilds JPEG frames split across UDP packets, per camera.
type frameAssembler struct {
	buffers map[string]*bytes.Buffer
}

func newFrameAssembler() *frameAssembler {
	return &frameAssembler{buffers: make(map[string]*bytes.Buffer)}
}

// feed appends a packet and returns the frame it completes, if any.
func (a *frameAssembler) feed(camera string, data []byte) []byte {
	imgBuffer, ok := a.buffers[camera]
	if !ok {
		imgBuffer = new(bytes.Buffer)
		a.buffers[camera] = imgBuffer
	}

	if bytes.HasPrefix(data, jpegHeader) {
		imgBuffer.Reset()
	} else if imgBuffer.Len() == 0 {
		// Tail of a frame whose header was lost.
		return nil
	}
	imgBuffer.Write(data)

	if !bytes.HasSuffix(data, jpegFooter) {
		return nil
	}

	fullFrame := make([]byte, imgBuffer.Len())
	copy(fullFrame, imgBuffer.Bytes())
	imgBuffer.Reset()
	return fullFrame
}

// cameraName resolves the configured name of a camera by source IP.
func cameraName(config *config.Config, addr *net.UDPAddr) string {
	ip := addr.IP.String()
	if name, exists := config.CameraNames[ip]; exists {
		return name
	}
	return "unknown_" + ip
}

// UDPCameraHandler listens for UDP packets from cameras, reconstructs JPEG frames,
// and forwards complete frames to the sink.
func UDPCameraHandler(sink CameraSink, logger *logger.Logger, config *config.Config) {
	port := strconv.Itoa(config.CamerasPort)

	addr, err := net.ResolveUDPAddr("udp", ":"+port)
	if err != nil {
		logger.Error("Failed to resolve UDP address: %v", err)
		return
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		logger.Error("Failed to listen on UDP port %s: %v", port, err)
		return
	}
	defer conn.Close()

	logger.Info("UDP Camera handler started on port %s", port)
	buffer := make([]byte, 65535)
	assembler := newFrameAssembler()

	for {
		n, remoteAddr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			logger.Error("Error reading UDP packet: %v", err)
			continue
		}

		camera := cameraName(config, remoteAddr)
		if frame := assembler.feed(camera, buffer[:n]); frame != nil {
			sink.HandleCameraImage(frame, camera)
		}
	}
}
