// Command gonfd is the ICN forwarder's entrypoint: parse a YAML config file,
// bring up the configured faces, start the forwarding threads, and run
// until interrupted.
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gonfd/gonfd/core"
	"github.com/gonfd/gonfd/defn"
	"github.com/gonfd/gonfd/fw/face"
	"github.com/gonfd/gonfd/fw/fw"
	"github.com/gonfd/gonfd/std/utils"
	"github.com/spf13/cobra"
)

var config = core.DefaultConfig()

var cmdGonfd = &cobra.Command{
	Use:     "gonfd CONFIG-FILE",
	Short:   "ICN forwarding daemon",
	Version: utils.NDNdVersion,
	Args:    cobra.ExactArgs(1),
	Run:     run,
}

func init() {
	cmdGonfd.Flags().StringVar(&config.Core.CpuProfile, "cpu-profile", "", "Write CPU profile to file")
	cmdGonfd.Flags().StringVar(&config.Core.MemProfile, "mem-profile", "", "Write memory profile to file")
}

func main() {
	if err := cmdGonfd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) {
	configFile := args[0]
	config.Core.BaseDir = filepath.Dir(configFile)

	if err := core.LoadConfig(configFile, config); err != nil {
		core.Log.Fatal(nil, "Unable to load config", "err", err)
	}
	core.C = config

	fw.RunDispatch()
	startFaces()

	sigChannel := make(chan os.Signal, 1)
	signal.Notify(sigChannel, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	var receivedSig os.Signal
	for {
		receivedSig = <-sigChannel
		if receivedSig != syscall.SIGQUIT {
			break
		}
		// SIGQUIT dumps every goroutine's stack without exiting, for
		// diagnosing a forwarder that looks stuck (e.g. a wedged Thread.Run).
		utils.PrintStackTrace()
	}
	core.Log.Info(nil, "Received signal - exiting", "signal", receivedSig)

	core.ShouldQuit = true
	for _, ls := range face.Faces.All() {
		ls.Close()
	}
}

// startFaces brings up every Listener/multicast transport this config asks
// for. Each is best-effort: a face that fails to bind (missing interface,
// port in use, insufficient privilege for a raw Ethernet socket) is logged
// and skipped rather than treated as fatal, since the forwarder is still
// useful with a subset of its configured faces running.
func startFaces() {
	if config.Faces.Tcp.Enable {
		startTCP()
	}
	if config.Faces.Udp.EnableMulticast {
		startUDPMulticast()
	}
	for _, name := range config.Faces.Ethernet.Interfaces {
		startEthernet(name)
	}
}

func startTCP() {
	uri := defn.DecodeURIString(fmt.Sprintf("tcp4://0.0.0.0:%d", config.Faces.Tcp.Port))
	listener, err := face.MakeTCPListener(uri)
	if err != nil {
		core.Log.Error(nil, "Unable to create TCP listener", "err", err)
		return
	}
	go listener.Run()
}

func startUDPMulticast() {
	for _, iface := range multicastCapableInterfaces() {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok || ipNet.IP.To4() == nil {
				continue
			}
			uri := defn.DecodeURIString(fmt.Sprintf("udp4://%s:%d", ipNet.IP.String(), config.Faces.Udp.PortUnicast))
			t, err := face.MakeMulticastUDPTransport(uri)
			if err != nil {
				core.Log.Error(nil, "Unable to create multicast UDP transport", "iface", iface.Name, "err", err)
				continue
			}
			face.MakeNDNLPLinkService(t, face.MakeNDNLPLinkServiceOptions()).Run(nil)
		}
	}
}

func multicastCapableInterfaces() []net.Interface {
	all, err := net.Interfaces()
	if err != nil {
		core.Log.Error(nil, "Unable to enumerate interfaces", "err", err)
		return nil
	}
	out := make([]net.Interface, 0, len(all))
	for _, iface := range all {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagMulticast == 0 {
			continue
		}
		out = append(out, iface)
	}
	return out
}

func startEthernet(name string) {
	iface, err := net.InterfaceByName(name)
	if err != nil {
		core.Log.Error(nil, "Unknown Ethernet interface", "name", name, "err", err)
		return
	}
	listener, err := face.MakeEthernetListener(iface, config.Faces.Ethernet.Ethertype)
	if err != nil {
		core.Log.Error(nil, "Unable to create Ethernet listener", "name", name, "err", err)
		return
	}
	go listener.Run()
}
