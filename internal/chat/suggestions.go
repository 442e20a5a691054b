// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

// Suggestion is a preset prompt offered before the user types anything.
type Suggestion struct {
	Label  string
	Prompt string
}

var presetSuggestions = []Suggestion{
	{
		Label:  "ระเบียบการแต่งกาย",
		Prompt: "ช่วยอธิบายระเบียบการแต่งกายของนักศึกษามหาวิทยาลัยแม่ฟ้าหลวงแบบเข้าใจง่ายให้หน่อย",
	},
	{
		Label:  "กำหนดการลงทะเบียนเรียน",
		Prompt: "ปฏิทินการศึกษาและกำหนดการลงทะเบียนเรียนของมหาวิทยาลัยแม่ฟ้าหลวง ภาคการศึกษาล่าสุดเป็นอย่างไร",
	},
	{
		Label:  "ทุนการศึกษา",
		Prompt: "มหาวิทยาลัยแม่ฟ้าหลวงมีทุนการศึกษาแบบใดบ้าง และมีเงื่อนไขการสมัครอย่างไร",
	},
	{
		Label:  "หอพักนักศึกษา",
		Prompt: "ข้อมูลเกี่ยวกับหอพักนักศึกษาที่มหาวิทยาลัยแม่ฟ้าหลวง เช่น ประเภทหอพัก การสมัคร และกฎระเบียบมีอะไรบ้าง",
	},
}

// Suggestions returns the preset prompts.
func Suggestions() []Suggestion {
	out := make([]Suggestion, len(presetSuggestions))
	copy(out, presetSuggestions)
	return out
}

// ContactInfo is how students reach the administrators.
type ContactInfo struct {
	Email string
	Phone string
	Hours string
}

// Contact returns the administrator contact details.
func Contact() ContactInfo {
	return ContactInfo{
		Email: "support@mfu.ac.th",
		Phone: "053-916000",
		Hours: "จันทร์-ศุกร์ 08:30-16:30 น.",
	}
}
