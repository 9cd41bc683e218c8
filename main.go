/*
 * SEL32 - Main process.
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package main

import (
	"io"
	"log/slog"
	"os"
	"strconv"

	getopt "github.com/pborman/getopt/v2"
	reader "github.com/rcornwell/SEL32/command/reader"
	config "github.com/rcornwell/SEL32/config/configparser"
	core "github.com/rcornwell/SEL32/emu/core"
	master "github.com/rcornwell/SEL32/emu/master"
	timer "github.com/rcornwell/SEL32/emu/timer"
	logger "github.com/rcornwell/SEL32/util/logger"
)

func main() {
	optConfig := getopt.StringLong("config", 'c', "SEL32.cfg", "Configuration file")
	optLogFile := getopt.StringLong("log", 'l', "", "Log file")
	optDebug := getopt.BoolLong("debug", 'd', "Log debug to console")
	optBoot := getopt.StringLong("boot", 'b', "", "Device to boot after configuration")
	optHelp := getopt.BoolLong("help", 'h', "Help")
	getopt.Parse()

	if *optHelp {
		getopt.Usage()
		os.Exit(0)
	}

	var file io.Writer
	if *optLogFile != "" {
		f, err := os.Create(*optLogFile)
		if err != nil {
			slog.Error("Unable to create log file", "file", *optLogFile, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		file = f
	}
	programLevel := new(slog.LevelVar)
	programLevel.Set(slog.LevelDebug)
	log := slog.New(logger.NewHandler(file, &slog.HandlerOptions{Level: programLevel, AddSource: false}, optDebug))
	slog.SetDefault(log)

	log.Info("SEL32 Started")

	_, err := os.Stat(*optConfig)
	if os.IsNotExist(err) {
		log.Error("Configuration file can't be found", "file", *optConfig)
		os.Exit(1)
	}

	machine := core.NewMachine(log)
	parser := config.New()
	machine.Configure(parser)
	err = parser.LoadConfigFile(*optConfig)
	if err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
	machine.Reset()

	masterChannel := make(chan master.Packet)

	// Create new routine to run CPU.
	cpu := core.NewCore(machine, masterChannel)
	go cpu.Start()

	clock := timer.NewTimer(masterChannel)
	clock.Start()

	if *optBoot != "" {
		devNum, err := strconv.ParseUint(*optBoot, 16, 11)
		if err != nil {
			log.Error("Boot device must be hexadecimal address", "device", *optBoot)
		} else {
			cpu.SendIPL(uint16(devNum))
		}
	}

	msg := make(chan string, 1)
	go func() {
		reader.ConsoleReader(cpu)
		msg <- ""
	}()

	// Wait on shutdown option
	<-msg

	clock.Shutdown()
	cpu.Stop()
	log.Info("SEL32 stopped.")
}
