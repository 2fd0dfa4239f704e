package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/gdamore/tcell/v2"
	libusb "github.com/kevmo314/go-libusb"
	"github.com/kevmo314/go-libusb/pkg/descriptors"
	"github.com/rivo/tview"
)

func main() {
	verbose := flag.Bool("verbose", false, "enable the native library's debug logging")

	flag.Parse()

	ctx, err := libusb.NewContext()
	if err != nil {
		panic(err)
	}
	defer ctx.Close()

	app := tview.NewApplication()

	devices := tview.NewList()
	devices.SetBorder(true).SetTitle("Devices")

	configs := tview.NewList().ShowSecondaryText(false)
	configs.SetBorder(true).SetTitle("Configurations")

	details := tview.NewTextView()
	details.SetBorder(true).SetTitle("Details")

	logText := tview.NewTextView()
	logText.SetMaxLines(10).SetBorder(true).SetTitle("Log")

	log.SetOutput(logText)

	// Route the native library's own log lines into the log panel.
	ctx.SetLogCallback(func(level libusb.LogLevel, message string) {
		fmt.Fprintf(logText, "[%s] %s", level, message)
	}, libusb.LogCallbackModeContext)
	if *verbose {
		ctx.SetLogLevel(libusb.LogLevelDebug)
	} else {
		ctx.SetLogLevel(libusb.LogLevelWarning)
	}

	list, err := ctx.Devices()
	if err != nil {
		panic(err)
	}
	defer list.Close()

	for i := 0; i < list.Len(); i++ {
		dev := list.Get(i)
		if dev == nil {
			continue
		}
		desc, err := dev.Descriptor()
		if err != nil {
			log.Printf("skipping device %d: %s", i, err)
			dev.Close()
			continue
		}
		title := fmt.Sprintf("%04x:%04x", desc.VendorID, desc.ProductID)
		subtitle := fmt.Sprintf("bus %03d addr %03d, %s", dev.BusNumber(), dev.Address(), dev.Speed())
		numConfigs := desc.NumConfigurations

		devices.AddItem(title, subtitle, 0, func() {
			configs.Clear()
			for c := uint8(0); c < numConfigs; c++ {
				cfg, err := dev.ConfigDescriptor(c)
				if err != nil {
					log.Printf("config %d: %s", c, err)
					continue
				}
				configs.AddItem(fmt.Sprintf("Configuration %d", cfg.ConfigurationValue), "", 0, func() {
					details.Clear()
					printConfig(details, cfg)
					app.SetFocus(details)
				})
			}
			app.SetFocus(configs)
		})
	}

	flex := tview.NewFlex().
		AddItem(devices, 0, 1, true).
		AddItem(configs, 0, 1, false).
		AddItem(details, 0, 2, false)

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(flex, 0, 1, true).
		AddItem(logText, 10, 0, false)

	app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape {
			app.SetFocus(devices)
			return nil
		}
		return event
	})

	if err := app.SetRoot(root, true).Run(); err != nil {
		panic(err)
	}
}

func printConfig(details *tview.TextView, cfg *descriptors.ConfigDescriptor) {
	fmt.Fprintf(details, "Interfaces: %d\n", cfg.NumInterfaces)
	fmt.Fprintf(details, "Attributes: self-powered=%t remote-wakeup=%t\n", cfg.SelfPowered(), cfg.RemoteWakeup())
	fmt.Fprintf(details, "Max power: %d mA\n\n", cfg.MaxPowerMilliamps())
	for _, iface := range cfg.Interfaces {
		fmt.Fprintf(details, "Interface %d alt %d: class %02x/%02x/%02x\n",
			iface.InterfaceNumber, iface.AlternateSetting,
			iface.InterfaceClass, iface.InterfaceSubClass, iface.InterfaceProtocol)
		for _, ep := range iface.Endpoints {
			fmt.Fprintf(details, "  EP %d %s %s, %d bytes, interval %d\n",
				ep.Number(), ep.Direction(), ep.TransferType(), ep.MaxPacketSize, ep.Interval)
		}
	}
}
