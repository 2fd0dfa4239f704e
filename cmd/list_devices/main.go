package main

import (
	"fmt"
	"log"

	libusb "github.com/kevmo314/go-libusb"
)

func main() {
	ctx, err := libusb.NewContext()
	if err != nil {
		log.Fatalf("Failed to initialize context: %v", err)
	}
	defer ctx.Close()

	fmt.Printf("hotplug: %t, hid access: %t, detach kernel driver: %t\n\n",
		ctx.HasHotplug(), ctx.HasHIDAccess(), ctx.SupportsDetachKernelDriver())

	list, err := ctx.Devices()
	if err != nil {
		log.Fatalf("Failed to list devices: %v", err)
	}
	defer list.Close()

	if list.Len() == 0 {
		fmt.Println("No USB devices found")
		return
	}

	fmt.Printf("Found %d device(s):\n\n", list.Len())

	for i := 0; i < list.Len(); i++ {
		dev := list.Get(i)
		if dev == nil {
			continue
		}

		fmt.Printf("Device %d:\n", i+1)
		fmt.Printf("  Bus %03d Address %03d, speed: %s\n", dev.BusNumber(), dev.Address(), dev.Speed())

		desc, err := dev.Descriptor()
		if err != nil {
			fmt.Printf("  (Could not read descriptor: %v)\n", err)
			dev.Close()
			continue
		}
		fmt.Printf("  VID:PID: %04x:%04x\n", desc.VendorID, desc.ProductID)
		fmt.Printf("  USB Version: %d.%02d\n", desc.USBVersion>>8, desc.USBVersion&0xff)
		fmt.Printf("  Class: %d, SubClass: %d, Protocol: %d\n",
			desc.DeviceClass, desc.DeviceSubClass, desc.DeviceProtocol)

		// Try to open and get more info.
		handle, err := dev.Open()
		if err != nil {
			fmt.Printf("  (Could not open: %v)\n", err)
		} else {
			if desc.ProductIndex != 0 {
				if product, err := handle.StringDescriptor(desc.ProductIndex); err == nil {
					fmt.Printf("  Product: %s\n", product)
				}
			}
			if config, err := dev.ActiveConfigDescriptor(); err == nil {
				fmt.Printf("  Active Config: %d, Interfaces: %d\n",
					config.ConfigurationValue, config.NumInterfaces)
				for _, iface := range config.Interfaces {
					fmt.Printf("    Interface %d alt %d: class %d, %d endpoint(s)\n",
						iface.InterfaceNumber, iface.AlternateSetting, iface.InterfaceClass, len(iface.Endpoints))
				}
			}
			if bos, err := handle.BOSDescriptor(); err == nil {
				if id, ok := bos.ContainerID(); ok {
					fmt.Printf("  Container ID: %s\n", id)
				}
			}
			handle.Close()
		}

		dev.Close()
		fmt.Println()
	}
}
