package handler

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strconv"

	"partcounter/internal/config"
	"partcounter/internal/logger"
	"partcounter/internal/service"
)

var (
	jpegHeader = []byte{0xFF, 0xD8}
	jpegFooter = []byte{0xFF, 0xD9}
)

// FrameSink receives reassembled camera frames.
type FrameSink interface {
	HandleCameraImage(image []byte, camera string)
}

var _ FrameSink = (*service.Manager)(nil)

// UDPCameraHandler listens for UDP packets from cameras, reconstructs JPEG frames,
// and forwards complete frames to sink for the counting-line overlay. It returns
// when ctx is done.
func UDPCameraHandler(ctx context.Context, sink FrameSink, logger *logger.Logger, config *config.Config) {
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

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	logger.Info("UDP Camera handler started on port %s", port)
	ServeCameraPackets(conn, sink, logger, config.CameraNames)
}

// ServeCameraPackets reads packets from conn until it is closed. Cameras are
// named from cameraNames by source IP, or "unknown_<ip>".
func ServeCameraPackets(conn net.PacketConn, sink FrameSink, logger *logger.Logger, cameraNames map[string]string) {
	buffer := make([]byte, 2048)
	cameraBuffers := make(map[string]*bytes.Buffer)

	for {
		n, remoteAddr, err := conn.ReadFrom(buffer)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Info("UDP Camera handler stopped")
				return
			}
			logger.Error("Error reading UDP packet: %v", err)
			continue
		}

		ip := remoteAddr.String()
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		cameraName, exists := cameraNames[ip]
		if !exists {
			cameraName = "unknown_" + ip
		}

		data := buffer[:n]
		imgBuffer, ok := cameraBuffers[cameraName]
		if !ok {
			imgBuffer = new(bytes.Buffer)
			cameraBuffers[cameraName] = imgBuffer
		}

		if bytes.HasPrefix(data, jpegHeader) {
			imgBuffer.Reset()
		}
		imgBuffer.Write(data)

		if bytes.HasSuffix(data, jpegFooter) {
			fullFrame := make([]byte, imgBuffer.Len())
			copy(fullFrame, imgBuffer.Bytes())
			sink.HandleCameraImage(fullFrame, cameraName)
			imgBuffer.Reset()
		}
	}
}
