// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package admin

// Status banner texts.
const (
	msgTokenRequired   = "⚠ กรุณากรอก Token"
	msgTokenSaved      = "✅ บันทึก Admin Token แล้ว"
	msgTokenCleared    = "ลบ Admin Token แล้ว"
	msgNoToken         = "❌ กรุณาตั้งค่า Token"
	msgFormIncomplete  = "⚠ กรุณากรอกข้อมูลให้ครบ"
	msgSaving          = "⏳ กำลังบันทึก..."
	msgUpdated         = "✅ อัปเดตสำเร็จ (id=%d)"
	msgCreated         = "✅ เพิ่มข้อมูลใหม่แล้ว (id=%d)"
	msgSaveFailed      = "❌ บันทึกไม่สำเร็จ: "
	msgDocsLoaded      = "📄 โหลดเอกสารล่าสุด %d รายการ"
	msgDocsFailed      = "❌ โหลดรายการเอกสารไม่สำเร็จ: "
	msgEditing         = "✏️ โหมดแก้ไขเอกสาร (id=%d)"
	msgReadFailed      = "❌ อ่านเอกสารไม่สำเร็จ: "
	msgNewMode         = "โหมดเพิ่มเนื้อหาใหม่"
	msgConfirmDelete   = "ยืนยันการลบเอกสาร id=%d ?"
	msgDeleted         = "✅ ลบสำเร็จ"
	msgDeleteFailed    = "❌ ลบไม่สำเร็จ: "
	msgChoosePDF       = "⚠ กรุณาเลือกไฟล์ PDF"
	msgUploading       = "⏳ กำลังอัปโหลด..."
	msgUploaded        = "✅ สำเร็จ (id=%d, %d ตัวอักษร)"
	msgUploadFailed    = "❌ อัปโหลดล้มเหลว: "
	msgFeedbackFailed  = "❌ โหลดความคิดเห็นไม่สำเร็จ: "
	msgStatsIncomplete = "⚠ โหลดสถิติได้ไม่ครบ"
)
