// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

// bmp180Registers is the BMP180 register map. Conversion results are
// big-endian, MSB first.
var bmp180Registers = []Register{
	{Addr: 0xAA, Name: "CALIB", Width: 22, Access: "R", Description: "Calibration EEPROM AC1..AC6, B1, B2, MB, MC, MD",
		BitFields: []BitField{
			{Bits: "175:0", Name: "COEFFS", Description: "Eleven 16-bit big-endian words", Values: "0x0000 and 0xFFFF are invalid"},
		}},
	{Addr: 0xD0, Name: "ID", Access: "R", Description: "Chip identification", Default: "0x55",
		BitFields: []BitField{
			{Bits: "7:0", Name: "ID", Description: "Chip ID", Values: "0x55=BMP180"},
		}},
	{Addr: 0xE0, Name: "SOFT_RESET", Access: "W", Description: "Soft reset", Default: "0x00",
		BitFields: []BitField{
			{Bits: "7:0", Name: "RESET", Description: "Writing 0xB6 performs a power-on reset", Values: "0xB6=Reset"},
		}},
	{Addr: 0xF4, Name: "CTRL_MEAS", Access: "RW", Description: "Measurement control", Default: "0x00",
		BitFields: []BitField{
			{Bits: "7:6", Name: "OSS", Description: "Pressure oversampling", Values: "0=1x, 1=2x, 2=4x, 3=8x"},
			{Bits: "5", Name: "SCO", Description: "Start of conversion", Values: "1=Conversion running"},
			{Bits: "4:0", Name: "MEAS", Description: "Measurement select", Values: "0x0E=Temperature, 0x14=Pressure"},
		}},
	{Addr: 0xF6, Name: "OUT_MSB", Width: 3, Access: "R", Description: "Conversion result MSB, LSB, XLSB"},
	{Addr: 0xF7, Name: "OUT_LSB", Access: "R", Description: "Conversion result LSB"},
	{Addr: 0xF8, Name: "OUT_XLSB", Access: "R", Description: "Conversion result XLSB (bits 7:3)"},
}

// lsm303dRegisters is the LSM303D register map. Output registers are
// little-endian; bit 7 of the sub-address enables auto-increment.
var lsm303dRegisters = []Register{
	{Addr: 0x05, Name: "TEMP_OUT_L", Width: 2, Access: "R", Description: "Temperature sensor output"},
	{Addr: 0x07, Name: "STATUS_M", Access: "R", Description: "Magnetometer status",
		BitFields: []BitField{
			{Bits: "3", Name: "ZYXMDA", Description: "New X, Y, Z magnetic data available", Values: "0=No, 1=Yes"},
			{Bits: "7", Name: "ZYXMOR", Description: "Magnetic data overrun", Values: "0=No, 1=Yes"},
		}},
	{Addr: 0x08, Name: "OUT_X_L_M", Width: 6, Access: "R", Description: "Magnetometer X, Y, Z output"},
	{Addr: 0x0F, Name: "WHO_AM_I", Access: "R", Description: "Device identification", Default: "0x49",
		BitFields: []BitField{
			{Bits: "7:0", Name: "WHO_AM_I", Description: "Device ID", Values: "0x49=LSM303D"},
		}},
	{Addr: 0x1F, Name: "CTRL0", Access: "RW", Description: "Control 0 (boot, FIFO)", Default: "0x00"},
	{Addr: 0x20, Name: "CTRL1", Access: "RW", Description: "Control 1 (accelerometer data rate, axes)", Default: "0x07",
		BitFields: []BitField{
			{Bits: "7:4", Name: "AODR", Description: "Acceleration data rate", Values: "0=Power down, 3=25Hz, 5=50Hz, 6=100Hz, 7=200Hz"},
			{Bits: "3", Name: "BDU", Description: "Block data update", Values: "0=Continuous, 1=Hold until read"},
			{Bits: "2:0", Name: "AZEN/AYEN/AXEN", Description: "Axis enable", Values: "1=Enabled"},
		}},
	{Addr: 0x21, Name: "CTRL2", Access: "RW", Description: "Control 2 (anti-alias filter, full scale)", Default: "0x00",
		BitFields: []BitField{
			{Bits: "7:6", Name: "ABW", Description: "Anti-alias filter bandwidth", Values: "0=773Hz, 1=194Hz, 2=362Hz, 3=50Hz"},
			{Bits: "5:3", Name: "AFS", Description: "Acceleration full scale", Values: "0=±2g, 1=±4g, 2=±6g, 3=±8g, 4=±16g"},
			{Bits: "2:1", Name: "AST", Description: "Self-test", Values: "0=Normal"},
		}},
	{Addr: 0x22, Name: "CTRL3", Access: "RW", Description: "Control 3 (INT1 routing)", Default: "0x00"},
	{Addr: 0x23, Name: "CTRL4", Access: "RW", Description: "Control 4 (INT2 routing)", Default: "0x00"},
	{Addr: 0x24, Name: "CTRL5", Access: "RW", Description: "Control 5 (temperature, magnetometer rate)", Default: "0x18",
		BitFields: []BitField{
			{Bits: "7", Name: "TEMP_EN", Description: "Temperature sensor", Values: "0=Disabled, 1=Enabled"},
			{Bits: "6:5", Name: "M_RES", Description: "Magnetic resolution", Values: "0=Low, 3=High"},
			{Bits: "4:2", Name: "M_ODR", Description: "Magnetic data rate", Values: "0=3.125Hz, 1=6.25Hz, 2=12.5Hz, 3=25Hz, 4=50Hz, 5=100Hz"},
		}},
	{Addr: 0x25, Name: "CTRL6", Access: "RW", Description: "Control 6 (magnetic full scale)", Default: "0x20",
		BitFields: []BitField{
			{Bits: "6:5", Name: "MFS", Description: "Magnetic full scale", Values: "0=±2gauss, 1=±4gauss, 2=±8gauss, 3=±12gauss"},
		}},
	{Addr: 0x26, Name: "CTRL7", Access: "RW", Description: "Control 7 (high-pass filter, magnetic mode)", Default: "0x02",
		BitFields: []BitField{
			{Bits: "7:6", Name: "AHPM", Description: "Acceleration high-pass filter mode", Values: "0=Normal"},
			{Bits: "5", Name: "AFDS", Description: "Filtered acceleration data selection", Values: "0=Filter bypassed"},
			{Bits: "2", Name: "MLP", Description: "Magnetic low power", Values: "0=Off"},
			{Bits: "1:0", Name: "MD", Description: "Magnetic sensor mode", Values: "0=Continuous, 1=Single, 2=Power down"},
		}},
	{Addr: 0x27, Name: "STATUS_A", Access: "R", Description: "Accelerometer status",
		BitFields: []BitField{
			{Bits: "3", Name: "ZYXADA", Description: "New X, Y, Z acceleration data available", Values: "0=No, 1=Yes"},
		}},
	{Addr: 0x28, Name: "OUT_X_L_A", Width: 6, Access: "R", Description: "Accelerometer X, Y, Z output"},
}

// l3gd20Registers is the L3GD20 register map.
var l3gd20Registers = []Register{
	{Addr: 0x0F, Name: "WHO_AM_I", Access: "R", Description: "Device identification", Default: "0xD4",
		BitFields: []BitField{
			{Bits: "7:0", Name: "WHO_AM_I", Description: "Device ID", Values: "0xD4=L3GD20"},
		}},
	{Addr: 0x20, Name: "CTRL_REG1", Access: "RW", Description: "Data rate, bandwidth, power, axes", Default: "0x07",
		BitFields: []BitField{
			{Bits: "7:6", Name: "DR", Description: "Output data rate", Values: "0=95Hz, 1=190Hz, 2=380Hz, 3=760Hz"},
			{Bits: "5:4", Name: "BW", Description: "Bandwidth", Values: "0=12.5Hz at 95Hz ODR"},
			{Bits: "3", Name: "PD", Description: "Power down", Values: "0=Power down, 1=Normal"},
			{Bits: "2:0", Name: "ZEN/YEN/XEN", Description: "Axis enable", Values: "1=Enabled"},
		}},
	{Addr: 0x21, Name: "CTRL_REG2", Access: "RW", Description: "High-pass filter", Default: "0x00",
		BitFields: []BitField{
			{Bits: "5:4", Name: "HPM", Description: "High-pass filter mode", Values: "0=Normal (reset reading)"},
			{Bits: "3:0", Name: "HPCF", Description: "High-pass cut-off", Values: "0..9"},
		}},
	{Addr: 0x22, Name: "CTRL_REG3", Access: "RW", Description: "Interrupt routing", Default: "0x00"},
	{Addr: 0x23, Name: "CTRL_REG4", Access: "RW", Description: "Full scale, endianness", Default: "0x00",
		BitFields: []BitField{
			{Bits: "7", Name: "BDU", Description: "Block data update", Values: "0=Continuous"},
			{Bits: "6", Name: "BLE", Description: "Endianness", Values: "0=Little endian, 1=Big endian"},
			{Bits: "5:4", Name: "FS", Description: "Full scale", Values: "0=250dps, 1=500dps, 2=2000dps"},
		}},
	{Addr: 0x24, Name: "CTRL_REG5", Access: "RW", Description: "Boot, FIFO, filter output selection", Default: "0x00"},
	{Addr: 0x25, Name: "REFERENCE", Access: "RW", Description: "Interrupt reference value", Default: "0x00"},
	{Addr: 0x26, Name: "OUT_TEMP", Access: "R", Description: "Temperature output"},
	{Addr: 0x27, Name: "STATUS_REG", Access: "R", Description: "Data status",
		BitFields: []BitField{
			{Bits: "3", Name: "ZYXDA", Description: "New X, Y, Z data available", Values: "0=No, 1=Yes"},
			{Bits: "7", Name: "ZYXOR", Description: "Data overrun", Values: "0=No, 1=Yes"},
		}},
	{Addr: 0x28, Name: "OUT_X_L", Width: 6, Access: "R", Description: "Angular rate X, Y, Z output"},
	{Addr: 0x2E, Name: "FIFO_CTRL_REG", Access: "RW", Description: "FIFO mode and watermark", Default: "0x00"},
	{Addr: 0x2F, Name: "FIFO_SRC_REG", Access: "R", Description: "FIFO status"},
}
